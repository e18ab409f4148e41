package tools

import "context"

// Demo traffic capabilities for the Longhua district scenario. The outputs
// are canned: they stand in for a live traffic simulation backend.

// RegisterTrafficTools registers the Longhua demo tools into the registry
func RegisterTrafficTools(r *Registry) error {
	defs := []Definition{
		{
			Name: "longhua_simulation",
			Description: "When the user wants to know the current traffic conditions in " +
				"Longhua District, Shenzhen, returns the current analysis of the district's traffic.",
			Handler: func(ctx context.Context, input string) (string, error) {
				return "It is the peak season for returning to China during the summer vacation. " +
					"Traffic is very congested at Shenzhen North Station and its surrounding areas " +
					"in Longhua District, Shenzhen.", nil
			},
		},
		{
			Name: "longhua_solution",
			Description: "When the user wants to solve the traffic congestion in Longhua District, " +
				"returns the recommended mitigation strategy.",
			Handler: func(ctx context.Context, input string) (string, error) {
				return "Apply the cooperative route optimization method based on local-search " +
					"optimal path assignment with length edge weights to relieve the congestion.", nil
			},
		},
		{
			Name: "longhua_result",
			Description: "When the user asks for the outcome of the cooperative route optimization " +
				"method, returns the simulation result after applying it.",
			Handler: func(ctx context.Context, input string) (string, error) {
				return "When the algorithm was used, simulation results showed that congestion " +
					"was successfully alleviated.", nil
			},
		},
	}

	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}
