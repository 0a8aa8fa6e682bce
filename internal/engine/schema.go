package engine

// Index field names.
const (
	FieldID               = "id"
	FieldSKU              = "sku"
	FieldName             = "name"
	FieldNameSort         = "name_sort"
	FieldNameAutocomplete = "name_autocomplete"
	FieldDescription      = "description"
	FieldPrice            = "price"
	FieldCurrency         = "currency"
	FieldCategory         = "category"
	FieldStock            = "stock"
	FieldImages           = "images"
	FieldScore            = "score"
)
