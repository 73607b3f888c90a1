package pusher

import "github.com/BarkinBalci/dataset-validation-service/internal/domain"

// invalidItemsToRecords converts invalid items into error dataset records
// shaped like the store's own error report.
func invalidItemsToRecords(items []domain.InvalidItem) []domain.Item {
	records := make([]domain.Item, 0, len(items))
	for _, item := range items {
		errs := make([]any, 0, len(item.ValidationErrors))
		for _, e := range item.ValidationErrors {
			params := map[string]any{}
			if e.Params.MissingProperty != "" {
				params["missingProperty"] = e.Params.MissingProperty
			}
			if e.Params.Type != "" {
				params["type"] = e.Params.Type
			}
			if e.Params.AdditionalProperty != "" {
				params["additionalProperty"] = e.Params.AdditionalProperty
			}

			errs = append(errs, map[string]any{
				"instancePath": e.InstancePath,
				"schemaPath":   e.SchemaPath,
				"keyword":      e.Keyword,
				"params":       params,
				"message":      e.Message,
			})
		}

		records = append(records, domain.Item{
			"itemPosition":     item.ItemPosition,
			"validationErrors": errs,
		})
	}
	return records
}
