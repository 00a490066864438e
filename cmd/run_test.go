package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/porousflow/gores/InputParameters"
)

func TestRunWaterflood(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Two Cell Waterflood
Nx: 2
Ny: 1
Nz: 1
Dx: 1.
Dy: 1.
Dz: 1.
Permeability: 100.
Porosity: 0.25
Model: oilwater
InitPressure: 200.
InitSw: 0.3
Fluid:
  G: 0.
Wells:
  - Name: I1
    Control: rate
    Target: 0.05
    Sign: 1
    Compi: [1., 0., 0.]
    Cells: [0]
    WI: [10.]
  - Name: P1
    Control: bhp
    Target: 195.
    Sign: -1
    Compi: [0., 1., 0.]
    Cells: [1]
    WI: [10.]
DtList: [1., 1.]
`)
	sp := &InputParameters.SimulationParameters{}
	if err = sp.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, sp.Model, "oilwater")
	assert.Equal(t, sp.Wells[1].Target, 195.)
	sp.Print()
	if err = RunSimulation(sp, false); err != nil {
		t.Fatalf("simulation failed: %s", err.Error())
	}
}

func TestRunDualPorosityEquilibrium(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Fracture Matrix Equilibrium
Nx: 3
Ny: 1
Nz: 1
Dx: 1.
Dy: 1.
Dz: 1.
Permeability: 100.
Porosity: 0.25
Model: dualporosity
Sigma: 1.e-3
InitPressure: 200.
InitSw: 0.3
Fluid:
  G: 0.
DtList: [1.]
`)
	sp := &InputParameters.SimulationParameters{}
	if err = sp.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, sp.Model, "dualporosity")
	if err = RunSimulation(sp, false); err != nil {
		t.Fatalf("simulation failed: %s", err.Error())
	}
}
