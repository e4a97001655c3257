package macro

import "strconv"

// ID is the macro identifier used in invocation markup.
const ID = "docaccordion"

// ParameterDescriptor documents one macro parameter.
type ParameterDescriptor struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// Descriptor documents the macro for editors and help output.
type Descriptor struct {
	ID                 string                `json:"id"`
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	SupportsInlineMode bool                  `json:"supportsInlineMode"`
	Parameters         []ParameterDescriptor `json:"parameters"`
}

// Descriptor returns the macro description localized for locale.
func (m *Macro) Descriptor(locale string) Descriptor {
	def := DefaultParameters()
	return Descriptor{
		ID:                 ID,
		Name:               m.translate(keyPrefix+"name", locale, "DocAccordion"),
		Description:        m.translate(keyPrefix+"description", locale, "Rendering macro for displaying multiple documents as an accordion"),
		SupportsInlineMode: false,
		Parameters: []ParameterDescriptor{
			{Name: "space", Label: "Location", Type: "string",
				Description: "Limit the selection to this page and its children. If the selected page is an Application Within Minutes, display items of that application."},
			{Name: "xclass", Label: "Application class", Type: "string",
				Description: "Limit the selection to documents containing objects instance of this XClass."},
			{Name: "sort", Label: "Order", Type: "CHRONO|ALPHA", Default: string(def.Sort),
				Description: "Sort the available documents."},
			{Name: "displayAuthor", Label: "Display the author", Type: "boolean", Default: strconv.FormatBool(def.DisplayAuthor),
				Description: "Display the document author."},
			{Name: "displayDate", Label: "Display the modification date", Type: "boolean", Default: strconv.FormatBool(def.DisplayDate),
				Description: "Display the document last modification date."},
			{Name: "limit", Label: "Maximum number of accordions", Type: "integer", Default: strconv.Itoa(def.Limit),
				Description: "Limit the number of accordions that could be displayed."},
			{Name: "accordionMaxHeight", Label: "Accordion height", Type: "integer", Default: "0",
				Description: "The maximum height that an accordion use to display the document content. To avoid scrollbars use zero for an unlimited height."},
			{Name: "openFirstAccordion", Label: "Open the first accordion", Type: "boolean", Default: strconv.FormatBool(def.OpenFirstAccordion),
				Description: "Open the first accordion."},
		},
	}
}
