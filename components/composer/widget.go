package composer

import (
	"encoding/json"
	"fmt"
	"math"
)

// Reserved catalog keys for ad-hoc widgets that never resolve to a catalog
// entry with OIDs of their own.
const (
	EmbedKey       = "embed"
	StyledEmbedKey = "styled-embed"
)

// PlaceAtBottom is the y coordinate meaning "let vertical compaction place the
// item after everything else".
const PlaceAtBottom = math.MaxInt32

// GridItem is the grid surface's own layout record. I must equal the owning
// widget instance id.
type GridItem struct {
	I      string `json:"i" yaml:"i"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	W      int    `json:"w" yaml:"w"`
	H      int    `json:"h" yaml:"h"`
	Static bool   `json:"static,omitempty" yaml:"static,omitempty"`
}

// Size is a width/height pair in grid units.
type Size struct {
	W int `json:"w" yaml:"w"`
	H int `json:"h" yaml:"h"`
}

// WidgetKind discriminates the widget variants.
type WidgetKind string

const (
	KindCatalog     WidgetKind = "catalog"
	KindEmbed       WidgetKind = "embed"
	KindStyledEmbed WidgetKind = "styled-embed"
)

// CatalogWidget is the payload of catalog-rendered widgets.
type CatalogWidget struct {
	GridLineStyle GridLineStyle `json:"gridLineStyle,omitempty" yaml:"grid_line_style,omitempty"`
}

// EmbedWidget is the payload of raw embeds (URL, HTML or SDK snippet).
type EmbedWidget struct {
	Code string `json:"embedCode" yaml:"embed_code"`
}

// StyledWidget is the payload of styled embeds of an analytics widget.
type StyledWidget struct {
	WidgetOID    string      `json:"widgetOid" yaml:"widget_oid"`
	DashboardOID string      `json:"dashboardOid" yaml:"dashboard_oid"`
	Style        StyleConfig `json:"styleConfig" yaml:"style_config"`
}

// WidgetInstance is one placed widget. Exactly one payload matching Kind is set.
type WidgetInstance struct {
	InstanceID string         `json:"instanceId" yaml:"instance_id"`
	Kind       WidgetKind     `json:"kind" yaml:"kind"`
	CatalogKey string         `json:"id" yaml:"id"`
	Layout     GridItem       `json:"layout" yaml:"layout"`
	Title      string         `json:"title,omitempty" yaml:"title,omitempty"`
	Catalog    *CatalogWidget `json:"catalog,omitempty" yaml:"catalog,omitempty"`
	Embed      *EmbedWidget   `json:"embed,omitempty" yaml:"embed,omitempty"`
	Styled     *StyledWidget  `json:"styled,omitempty" yaml:"styled,omitempty"`
}

// widgetInstanceJSON accepts both the tagged shape and the flat shape written
// by earlier clients (embedCode/widgetOid/dashboardOid/styleConfig at the top level).
type widgetInstanceJSON struct {
	InstanceID   string         `json:"instanceId"`
	Kind         WidgetKind     `json:"kind"`
	CatalogKey   string         `json:"id"`
	Layout       GridItem       `json:"layout"`
	Title        string         `json:"title"`
	Catalog      *CatalogWidget `json:"catalog"`
	Embed        *EmbedWidget   `json:"embed"`
	Styled       *StyledWidget  `json:"styled"`
	EmbedCode    string         `json:"embedCode"`
	WidgetOID    string         `json:"widgetOid"`
	DashboardOID string         `json:"dashboardOid"`
	StyleConfig  *StyleConfig   `json:"styleConfig"`
}

// UnmarshalJSON decodes either widget shape and normalizes it into the tagged variant.
func (w *WidgetInstance) UnmarshalJSON(data []byte) error {
	var raw widgetInstanceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	inst := WidgetInstance{
		InstanceID: raw.InstanceID,
		Kind:       raw.Kind,
		CatalogKey: raw.CatalogKey,
		Layout:     raw.Layout,
		Title:      raw.Title,
		Catalog:    raw.Catalog,
		Embed:      raw.Embed,
		Styled:     raw.Styled,
	}
	if inst.Kind == "" {
		inst.Kind = kindForKey(raw.CatalogKey)
	}
	switch inst.Kind {
	case KindEmbed:
		if inst.Embed == nil {
			inst.Embed = &EmbedWidget{Code: raw.EmbedCode}
		}
	case KindStyledEmbed:
		if inst.Styled == nil {
			styled := &StyledWidget{WidgetOID: raw.WidgetOID, DashboardOID: raw.DashboardOID}
			if raw.StyleConfig != nil {
				styled.Style = *raw.StyleConfig
			}
			inst.Styled = styled
		}
	default:
		if inst.Catalog == nil {
			inst.Catalog = &CatalogWidget{}
			if raw.StyleConfig != nil {
				inst.Catalog.GridLineStyle = raw.StyleConfig.GridLineStyle
			}
		}
	}
	*w = inst
	return nil
}

func kindForKey(key string) WidgetKind {
	switch key {
	case EmbedKey:
		return KindEmbed
	case StyledEmbedKey:
		return KindStyledEmbed
	default:
		return KindCatalog
	}
}

// Validate checks the layout identity and that the payload matches the kind.
func (w WidgetInstance) Validate() error {
	if w.InstanceID == "" {
		return fmt.Errorf("%w: instance id is required", ErrInvalidWidgets)
	}
	if w.Layout.I != w.InstanceID {
		return fmt.Errorf("%w: layout %q does not match instance %q", ErrInvalidWidgets, w.Layout.I, w.InstanceID)
	}
	switch w.Kind {
	case KindCatalog:
		if w.Embed != nil || w.Styled != nil {
			return fmt.Errorf("%w: catalog widget %s carries embed payload", ErrInvalidWidgets, w.InstanceID)
		}
	case KindEmbed:
		if w.Embed == nil || w.Styled != nil || w.Catalog != nil {
			return fmt.Errorf("%w: embed widget %s requires only an embed payload", ErrInvalidWidgets, w.InstanceID)
		}
	case KindStyledEmbed:
		if w.Styled == nil || w.Embed != nil || w.Catalog != nil {
			return fmt.Errorf("%w: styled widget %s requires only a styled payload", ErrInvalidWidgets, w.InstanceID)
		}
	default:
		return fmt.Errorf("%w: unknown widget kind %q", ErrInvalidWidgets, w.Kind)
	}
	return nil
}

// GridLineStyle returns the grid-line mode the instance renders with.
func (w WidgetInstance) GridLineStyle() GridLineStyle {
	switch {
	case w.Catalog != nil && w.Catalog.GridLineStyle != "":
		return w.Catalog.GridLineStyle
	case w.Styled != nil && w.Styled.Style.GridLineStyle != "":
		return w.Styled.Style.GridLineStyle
	default:
		return GridLinesBoth
	}
}

// ValidateInstances checks every instance and rejects duplicate ids.
func ValidateInstances(instances []WidgetInstance) error {
	seen := make(map[string]struct{}, len(instances))
	for _, inst := range instances {
		if err := inst.Validate(); err != nil {
			return err
		}
		if _, dup := seen[inst.InstanceID]; dup {
			return fmt.Errorf("%w: duplicate instance id %q", ErrInvalidWidgets, inst.InstanceID)
		}
		seen[inst.InstanceID] = struct{}{}
	}
	return nil
}

func (w WidgetInstance) clone() WidgetInstance {
	out := w
	if w.Catalog != nil {
		c := *w.Catalog
		out.Catalog = &c
	}
	if w.Embed != nil {
		e := *w.Embed
		out.Embed = &e
	}
	if w.Styled != nil {
		s := *w.Styled
		out.Styled = &s
	}
	return out
}

func cloneInstances(list []WidgetInstance) []WidgetInstance {
	if list == nil {
		return nil
	}
	out := make([]WidgetInstance, len(list))
	for i, inst := range list {
		out[i] = inst.clone()
	}
	return out
}

func (d Dashboard) clone() Dashboard {
	out := d
	out.WidgetInstances = cloneInstances(d.WidgetInstances)
	return out
}

func cloneDashboards(list []Dashboard) []Dashboard {
	out := make([]Dashboard, len(list))
	for i, d := range list {
		out[i] = d.clone()
	}
	return out
}

func cloneFolders(list []Folder) []Folder {
	return append([]Folder(nil), list...)
}
