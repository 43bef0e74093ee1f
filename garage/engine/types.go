package engine

// Built-in engine kinds. KindCustom marks catalog definitions that carry
// their own label and messages.
const (
	KindPetrol   = "petrol"
	KindElectric = "electric"
	KindHybrid   = "hybrid"
	KindCustom   = "custom"
)

// EngineConfig represents a catalog engine definition from JSON or YAML
type EngineConfig struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Kind        string `json:"kind" yaml:"kind"`
	Label       string `json:"label" yaml:"label"`
	FuelType    string `json:"fuel_type" yaml:"fuel_type"`
	Messages    struct {
		Start string `json:"start" yaml:"start"`
		Stop  string `json:"stop" yaml:"stop"`
	} `json:"messages" yaml:"messages"`
}
