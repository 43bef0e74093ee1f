package engine

func init() {
	Register(KindPetrol, func() Engine { return NewPetrolEngine() })
	Register(KindElectric, func() Engine { return NewElectricEngine() })
	Register(KindHybrid, func() Engine { return NewHybridEngine() })
}

// PetrolEngine is the combustion variant
type PetrolEngine struct{}

// NewPetrolEngine creates a petrol engine
func NewPetrolEngine() *PetrolEngine {
	return &PetrolEngine{}
}

// Start returns the petrol start line
func (e *PetrolEngine) Start() string {
	return "Petrol engine is starting..."
}

// Stop returns the petrol stop line
func (e *PetrolEngine) Stop() string {
	return "Petrol engine is stopping..."
}

// Type returns the petrol engine label
func (e *PetrolEngine) Type() string {
	return "Petrol Engine"
}

// ElectricEngine is the battery-powered variant
type ElectricEngine struct{}

// NewElectricEngine creates an electric engine
func NewElectricEngine() *ElectricEngine {
	return &ElectricEngine{}
}

// Start returns the electric start line
func (e *ElectricEngine) Start() string {
	return "Electric engine is starting..."
}

// Stop returns the electric stop line
func (e *ElectricEngine) Stop() string {
	return "Electric engine is stopping..."
}

// Type returns the electric engine label
func (e *ElectricEngine) Type() string {
	return "Electric Engine"
}

// HybridEngine combines combustion and battery drive
type HybridEngine struct{}

// NewHybridEngine creates a hybrid engine
func NewHybridEngine() *HybridEngine {
	return &HybridEngine{}
}

// Start returns the hybrid start line
func (e *HybridEngine) Start() string {
	return "Hybrid engine is starting..."
}

// Stop returns the hybrid stop line
func (e *HybridEngine) Stop() string {
	return "Hybrid engine is stopping..."
}

// Type returns the hybrid engine label
func (e *HybridEngine) Type() string {
	return "Hybrid Engine"
}
