package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML simulation deck
type SimulationParameters struct {
	Title        string             `yaml:"Title"`
	Nx           int                `yaml:"Nx"`
	Ny           int                `yaml:"Ny"`
	Nz           int                `yaml:"Nz"`
	Dx           float64            `yaml:"Dx"`
	Dy           float64            `yaml:"Dy"`
	Dz           float64            `yaml:"Dz"`
	Permeability float64            `yaml:"Permeability"`
	Porosity     float64            `yaml:"Porosity"`
	Model        string             `yaml:"Model"` // blackoil, oilwater, dualporosity, pressure
	DisGas       bool               `yaml:"DisGas"`
	VapOil       bool               `yaml:"VapOil"`
	Sigma        float64            `yaml:"Sigma"` // fracture/matrix shape factor
	Fluid        map[string]float64 `yaml:"Fluid"` // overrides for the analytic fluid constants
	InitPressure float64            `yaml:"InitPressure"`
	InitSw       float64            `yaml:"InitSw"`
	InitSg       float64            `yaml:"InitSg"`
	Wells        []WellParameters   `yaml:"Wells"`
	DtList       []float64          `yaml:"DtList"`
	MaxIter      int                `yaml:"MaxIterations"`
	Tolerance    float64            `yaml:"Tolerance"`
	DpMaxRel     float64            `yaml:"DpMaxRel"`
	DsMax        float64            `yaml:"DsMax"`
	DrsMaxRel    float64            `yaml:"DrsMaxRel"`
}

// One well: Cells index perforated grid blocks in natural order
type WellParameters struct {
	Name    string    `yaml:"Name"`
	Control string    `yaml:"Control"` // bhp, rate, orat, wrat, grat, lrat, vrat
	Target  float64   `yaml:"Target"`
	Sign    float64   `yaml:"Sign"` // +1 injector, -1 producer
	Compi   []float64 `yaml:"Compi"`
	Cells   []int     `yaml:"Cells"`
	WI      []float64 `yaml:"WI"`
	RefDz   []float64 `yaml:"RefDz"`
}

func (sp *SimulationParameters) Parse(data []byte) error {
	if err := yaml.Unmarshal(data, sp); err != nil {
		return err
	}
	return sp.validate()
}

func (sp *SimulationParameters) validate() error {
	if sp.Nx <= 0 || sp.Ny <= 0 || sp.Nz <= 0 {
		return fmt.Errorf("grid dimensions must be positive, have %dx%dx%d", sp.Nx, sp.Ny, sp.Nz)
	}
	switch sp.Model {
	case "blackoil", "oilwater", "dualporosity", "pressure":
	case "":
		sp.Model = "oilwater"
	default:
		return fmt.Errorf("unknown model %q", sp.Model)
	}
	nc := sp.Nx * sp.Ny * sp.Nz
	for _, w := range sp.Wells {
		for _, c := range w.Cells {
			if c < 0 || c >= nc {
				return fmt.Errorf("well %s perforates cell %d outside grid of %d cells", w.Name, c, nc)
			}
		}
		if len(w.WI) != len(w.Cells) {
			return fmt.Errorf("well %s has %d WI values for %d cells", w.Name, len(w.WI), len(w.Cells))
		}
	}
	if len(sp.DtList) == 0 {
		return fmt.Errorf("no timesteps given")
	}
	return nil
}

func (sp *SimulationParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", sp.Title)
	fmt.Printf("[%s]\t\t= Model\n", sp.Model)
	fmt.Printf("[%d x %d x %d]\t\t= Grid\n", sp.Nx, sp.Ny, sp.Nz)
	fmt.Printf("%8.5f\t\t= Porosity\n", sp.Porosity)
	fmt.Printf("%8.5f\t\t= Permeability\n", sp.Permeability)
	fmt.Printf("%8.5f\t\t= InitPressure\n", sp.InitPressure)
	fmt.Printf("[%d]\t\t\t= Timesteps\n", len(sp.DtList))
	keys := make([]string, len(sp.Fluid))
	i := 0
	for k := range sp.Fluid {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Fluid[%s] = %v\n", key, sp.Fluid[key])
	}
	for _, w := range sp.Wells {
		fmt.Printf("Well[%s] = %s %v at cells %v\n", w.Name, w.Control, w.Target, w.Cells)
	}
}
