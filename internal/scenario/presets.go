package scenario

// Preset is a named, ready-made set of deltas.
type Preset struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Deltas      Deltas `json:"deltas"`
}

var presets = []Preset{
	{
		Name:        "Material costs +20%",
		Description: "Supplier prices for raw materials rise by a fifth.",
		Deltas:      Deltas{MaterialCost: 20},
	},
	{
		Name:        "Labour costs +10%",
		Description: "Your hourly rate goes up by 10%.",
		Deltas:      Deltas{LabourCost: 10},
	},
	{
		Name:        "Shipping costs +15%",
		Description: "Carrier rates increase.",
		Deltas:      Deltas{ShippingCost: 15},
	},
	{
		Name:        "Price war -10%",
		Description: "Competitors undercut you and you match them.",
		Deltas:      Deltas{SalePrice: -10},
	},
	{
		Name:        "Price increase +10%",
		Description: "You raise your price by 10%.",
		Deltas:      Deltas{SalePrice: 10},
	},
	{
		Name:        "Inflation squeeze",
		Description: "Materials, labour and shipping all rise 10% with no price change.",
		Deltas:      Deltas{MaterialCost: 10, LabourCost: 10, ShippingCost: 10},
	},
	{
		Name:        "Bulk buying -15%",
		Description: "Buying materials in bulk cuts their cost.",
		Deltas:      Deltas{MaterialCost: -15},
	},
}

// Presets returns the built-in scenarios.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// PresetResult pairs a preset with its outcome.
type PresetResult struct {
	Preset Preset `json:"preset"`
	Result Result `json:"result"`
}

// EvaluatePresets evaluates every built-in preset against base.
func EvaluatePresets(base Baseline) ([]PresetResult, error) {
	out := make([]PresetResult, 0, len(presets))
	for _, p := range presets {
		res, err := Evaluate(base, p.Deltas)
		if err != nil {
			return nil, err
		}
		out = append(out, PresetResult{Preset: p, Result: res})
	}
	return out, nil
}
