package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/akmonengine/moreau/config"
	"github.com/akmonengine/moreau/scene"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 2)
)

// trace is what a run reports about its tracked body.
type trace struct {
	heights  []float64
	final    mgl64.Vec3
	energy   float64
	contacts int
	bodies   int
	joints   int
	solver   time.Duration
	elapsed  time.Duration
}

func simulate(sc *scene.Scene, steps int) (trace, error) {
	world := sc.World
	world.SetLogger(slog.Default().With("scene", sc.Name))

	tracked, ok := world.Body(sc.Tracked)
	if !ok {
		return trace{}, fmt.Errorf("scene %s: tracked body missing", sc.Name)
	}

	result := trace{heights: make([]float64, 0, steps)}
	start := time.Now()
	for range steps {
		if err := world.Step(); err != nil {
			return trace{}, err
		}
		result.heights = append(result.heights, tracked.Transform.Position.Y())
		result.solver += world.Counters.Total()
	}
	result.elapsed = time.Since(start)

	result.final = tracked.Transform.Position
	result.energy = world.KineticEnergy()
	for _, manifold := range world.Manifolds() {
		result.contacts += manifold.Len()
	}
	result.bodies = world.Bodies.Len()
	result.joints = world.Joints.Len()

	return result, nil
}

func renderSummary(name string, cfg *config.Config, result trace) string {
	rows := [][2]string{
		{"steps", fmt.Sprintf("%d (dt %.4gs)", len(result.heights), cfg.Integration.Dt)},
		{"bodies", fmt.Sprintf("%d, %d joints", result.bodies, result.joints)},
		{"tracked", fmt.Sprintf("(%.3f, %.3f, %.3f)", result.final.X(), result.final.Y(), result.final.Z())},
		{"kinetic energy", fmt.Sprintf("%.4g J", result.energy)},
		{"contacts", fmt.Sprintf("%d", result.contacts)},
		{"solver time", result.solver.String()},
		{"wall time", result.elapsed.String()},
	}

	lines := []string{headerStyle.Render("scene " + name)}
	for _, row := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(row[0]), valueStyle.Render(row[1])))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	sc, err := scene.Build(cfg)
	if err != nil {
		return err
	}

	result, err := simulate(sc, cfg.Run.Steps)
	if err != nil {
		return err
	}

	fmt.Println(renderSummary(sc.Name, cfg, result))
	if cfg.Run.Plot && len(result.heights) > 0 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(result.heights,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("tracked body height (m)"),
		))
	}
	return nil
}

func benchScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s, %d steps\n\n", cfg.Run.Scene, benchSteps)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WORKERS\tTIME\tSOLVER\tSTEPS/SEC")

	for _, pool := range benchPools {
		cfg.World.Workers = pool
		sc, err := scene.Build(cfg)
		if err != nil {
			return err
		}
		result, err := simulate(sc, benchSteps)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%v\t%v\t%.0f\n", pool, result.elapsed, result.solver, float64(benchSteps)/result.elapsed.Seconds())
	}

	return w.Flush()
}

func listScenes(cmd *cobra.Command, args []string) error {
	for _, name := range scene.Names() {
		fmt.Println(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(name), valueStyle.Render(scene.Description(name))))
	}
	return nil
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return config.Save(args[0], cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
