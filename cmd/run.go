/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/porousflow/gores/InputParameters"
	"github.com/porousflow/gores/equations"
	"github.com/porousflow/gores/grid"
	"github.com/porousflow/gores/nonlinear"
	"github.com/porousflow/gores/operators"
	"github.com/porousflow/gores/props"
	"github.com/porousflow/gores/solver"
	"github.com/porousflow/gores/state"
	"github.com/porousflow/gores/wells"
)

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from a YAML deck",
	Long: `Runs the fully implicit Newton loop over the deck's timestep list,

gores run -I deck.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		deckFile, err := cmd.Flags().GetString("inputFile")
		if err != nil {
			panic(err)
		}
		if len(deckFile) == 0 {
			fmt.Printf("error: must supply a simulation deck (-I, --inputFile) in YAML format\n")
			exampleFile := `
########################################
Title: "Quarter Five Spot"
Nx: 10
Ny: 10
Nz: 1
Dx: 10.
Dy: 10.
Dz: 2.
Permeability: 100.
Porosity: 0.25
Model: oilwater # Can be blackoil, dualporosity or pressure
InitPressure: 200.
InitSw: 0.2
DtList: [1., 1., 2., 5.]
########################################
`
			fmt.Printf("Example File:%s\n", exampleFile)
			os.Exit(1)
		}
		if prof, _ := cmd.Flags().GetBool("profile"); prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		verbose, _ := cmd.Flags().GetBool("verbose")

		data, err := ioutil.ReadFile(deckFile)
		if err != nil {
			panic(err)
		}
		sp := &InputParameters.SimulationParameters{}
		if err = sp.Parse(data); err != nil {
			panic(err)
		}
		sp.Print()
		if err = RunSimulation(sp, verbose); err != nil {
			fmt.Printf("error: %s\n", err.Error())
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().StringP("inputFile", "I", "", "YAML simulation deck with grid, fluid, wells and timesteps")
	RunCmd.Flags().BoolP("profile", "p", false, "write a CPU profile for the solve")
	RunCmd.Flags().BoolP("verbose", "v", false, "print residual norms every Newton iteration")
}

// RunSimulation builds the model described by sp and steps it through the
// deck's timestep list.
func RunSimulation(sp *InputParameters.SimulationParameters, verbose bool) error {
	g := grid.NewCartesian(sp.Nx, sp.Ny, sp.Nz, sp.Dx, sp.Dy, sp.Dz, sp.Permeability, sp.Porosity)
	ops, err := operators.New(g, operators.Options{})
	if err != nil {
		return err
	}
	fluid := props.NewAnalytic()
	if err = applyFluid(fluid, sp.Fluid); err != nil {
		return err
	}

	ws, err := buildWells(sp)
	if err != nil {
		return err
	}

	asm, st, err := buildModel(sp, ops, fluid, g.NumCells)
	if err != nil {
		return err
	}
	for _, w := range sp.Wells {
		bhp := sp.InitPressure
		if w.Control == "bhp" {
			bhp = w.Target
		}
		st.Wells = append(st.Wells, state.WellSol{Name: w.Name, BHP: bhp})
	}

	cfg := nonlinear.DefaultConfig()
	cfg.DisGas = sp.DisGas
	cfg.VapOil = sp.VapOil
	if sp.DpMaxRel > 0 {
		cfg.DpMaxRel = sp.DpMaxRel
	}
	if sp.DsMax > 0 {
		cfg.DsMax = sp.DsMax
	}
	if sp.DrsMaxRel > 0 {
		cfg.DrsMaxRel = sp.DrsMaxRel
	}
	driver := &nonlinear.Driver{
		Assembler: asm,
		Linear:    solver.Dense{},
		Updater:   nonlinear.NewUpdater(fluid, cfg),
		MaxIter:   sp.MaxIter,
		Tol:       sp.Tolerance,
		Verbose:   verbose,
	}
	if driver.MaxIter == 0 {
		driver.MaxIter = 25
	}
	if driver.Tol == 0 {
		driver.Tol = 1.e-7
	}
	if sp.Model == "pressure" {
		driver.UseIncTol = true
		driver.IncTol = driver.Tol
	}

	forces := equations.DrivingForces{Wells: ws}
	time := 0.
	for n, dt := range sp.DtList {
		st1, rep, err := driver.Step(st, dt, forces)
		if err != nil {
			return fmt.Errorf("step %d (dt=%g): %w", n, dt, err)
		}
		time += dt
		fmt.Printf("step %3d: time = %8.3f, dt = %6.3f, %d its, pAvg = %8.3f\n",
			n, time, dt, rep.Iterations, average(st1.Pressure))
		st = st1
	}
	for _, wsol := range st.Wells {
		fmt.Printf("well[%s]: bhp = %8.3f, qWs = %8.4f, qOs = %8.4f, qGs = %8.4f\n",
			wsol.Name, wsol.BHP, wsol.QWs, wsol.QOs, wsol.QGs)
	}
	return nil
}

func buildModel(sp *InputParameters.SimulationParameters, ops *operators.Bundle, fluid *props.Analytic, nc int) (equations.Assembler, *state.Reservoir, error) {
	st := state.New(nc)
	rsSat, _ := fluid.RsSat([]float64{sp.InitPressure})
	for i := 0; i < nc; i++ {
		st.Pressure[i] = sp.InitPressure
		st.Sw[i] = sp.InitSw
		st.Sg[i] = sp.InitSg
		st.So[i] = 1 - sp.InitSw - sp.InitSg
		if sp.DisGas {
			st.Rs[i] = rsSat[0]
			if sp.InitSg <= 0 {
				st.Status[i] = state.UndersatOil
			} else {
				st.Status[i] = state.Saturated
			}
		}
	}
	switch sp.Model {
	case "blackoil":
		return &equations.BlackOil{
			Ops: ops, Fluid: fluid,
			Ph: equations.Phases{
				Water: true, Oil: true, Gas: true,
				DisGas: sp.DisGas, VapOil: sp.VapOil,
			},
		}, st, nil
	case "oilwater":
		return &equations.OilWaterDP{
			Ops: ops, Fluid: fluid,
			Ph: equations.Phases{Water: true, Oil: true},
		}, st, nil
	case "dualporosity":
		st.EnableDualPorosity()
		copy(st.Pom, st.Pressure)
		copy(st.Swm, st.Sw)
		return &equations.OilWaterDP{
			Ops: ops, Fluid: fluid,
			Ph:       equations.Phases{Water: true, Oil: true, DualPorosity: true},
			Transfer: equations.LinearTransfer{Sigma: sp.Sigma},
		}, st, nil
	case "pressure":
		return &equations.PressureDP{
			Inner: equations.OilWaterDP{
				Ops: ops, Fluid: fluid,
				Ph: equations.Phases{Water: true, Oil: true},
			},
		}, st, nil
	}
	return nil, nil, fmt.Errorf("unknown model %q", sp.Model)
}

func buildWells(sp *InputParameters.SimulationParameters) (*wells.System, error) {
	if len(sp.Wells) == 0 {
		return nil, nil
	}
	list := make([]*wells.Well, len(sp.Wells))
	for i, wp := range sp.Wells {
		ctrl, err := parseControl(wp.Control)
		if err != nil {
			return nil, fmt.Errorf("well %s: %w", wp.Name, err)
		}
		w := &wells.Well{
			Name:    wp.Name,
			Control: ctrl,
			Target:  wp.Target,
			Sign:    wp.Sign,
			Cells:   wp.Cells,
			WI:      wp.WI,
			Dz:      wp.RefDz,
		}
		if w.Dz == nil {
			w.Dz = make([]float64, len(wp.Cells))
		}
		for j, c := range wp.Compi {
			if j < 3 {
				w.Compi[j] = c
			}
		}
		list[i] = w
	}
	return wells.NewSystem(list), nil
}

func parseControl(s string) (wells.ControlType, error) {
	switch s {
	case "bhp":
		return wells.BHP, nil
	case "rate":
		return wells.Rate, nil
	case "orat":
		return wells.ORat, nil
	case "wrat":
		return wells.WRat, nil
	case "grat":
		return wells.GRat, nil
	case "lrat":
		return wells.LRat, nil
	case "vrat":
		return wells.VRat, nil
	}
	return "", fmt.Errorf("unknown control type %q", s)
}

// applyFluid overrides the analytic fluid's constants from the deck's Fluid
// map. Unknown keys are fatal.
func applyFluid(m *props.Analytic, overrides map[string]float64) error {
	for k, v := range overrides {
		switch k {
		case "Pref":
			m.Pref = v
		case "BWref":
			m.BWref = v
		case "CW":
			m.CW = v
		case "BOref":
			m.BOref = v
		case "CO":
			m.CO = v
		case "BGref":
			m.BGref = v
		case "CG":
			m.CG = v
		case "RsSlope":
			m.RsSlope = v
		case "RvSlope":
			m.RvSlope = v
		case "MuW":
			m.MuW = v
		case "MuO":
			m.MuO = v
		case "MuG":
			m.MuG = v
		case "RhoW":
			m.RhoW = v
		case "RhoO":
			m.RhoO = v
		case "RhoG":
			m.RhoG = v
		case "Swc":
			m.Swc = v
		case "Sor":
			m.Sor = v
		case "Sgc":
			m.Sgc = v
		case "CR":
			m.CR = v
		case "G":
			m.G = v
		default:
			return fmt.Errorf("unknown fluid parameter %q", k)
		}
	}
	return nil
}

func average(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := 0.
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}
