// catbench measures the throughput of the concatenation engine across dtypes,
// axes and worker counts, and prints the results as a table.
//
// Example:
//
//	catbench -rows=4096 -cols=1024 -inputs=4 -dtypes=float32,uint8 -workers=1,4,0
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/goten/kernels"
	"github.com/gomlx/goten/types/shapes"
	"github.com/gomlx/goten/types/tensors"
	"github.com/gomlx/goten/types/xslices"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagRows   = flag.Int("rows", 4096, "Number of rows of each input tensor.")
	flagCols   = flag.Int("cols", 1024, "Number of columns of each input tensor.")
	flagInputs = flag.Int("inputs", 4, "Number of input tensors concatenated per call.")
	flagAxes   = flag.String("axes", "0,1", "Comma-separated list of axes to benchmark. "+
		"Inputs are rank-2, so only 0, 1 and their negative forms are valid.")
	flagDTypes = flag.String("dtypes", "float32,float64,uint8", "Comma-separated list of dtypes to benchmark. "+
		"Aliases like f32 or bf16 also work.")
	flagWorkers = flag.String("workers", "1,2,4,0", "Comma-separated list of worker counts to benchmark. "+
		"0 means one worker per CPU core.")
	flagGrain = flag.Int("grain", kernels.DefaultGrainBytes,
		"Copy grain in bytes: how much output a worker copies before stealing more rows.")
	flagReps = flag.Int("reps", 50, "Number of concatenation calls per measurement.")
)

func main() {
	flag.Parse()
	if len(flag.Args()) > 0 {
		klog.Errorf("catbench takes no positional arguments. See 'catbench -help'.")
		os.Exit(1)
	}
	for name, value := range map[string]int{"rows": *flagRows, "cols": *flagCols, "inputs": *flagInputs, "reps": *flagReps} {
		if value <= 0 {
			klog.Errorf("Flag -%s must be positive, got %d. See 'catbench -help'.", name, value)
			os.Exit(1)
		}
	}
	benchDTypes := parseDTypes(*flagDTypes)
	axes := parseInts("axes", *flagAxes)
	for _, axis := range axes {
		if axis < -2 || axis >= 2 {
			klog.Errorf("Invalid axis %d for rank-2 inputs. See 'catbench -help'.", axis)
			os.Exit(1)
		}
	}
	workers := parseInts("workers", *flagWorkers)
	benchmark(benchDTypes, axes, workers)
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == 1 {
				s = headerRowStyle
				return
			}
			switch {
			case row%2 == 0:
				// Even row style.
				s = oddRowStyle
			default:
				// Odd row style
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func benchmark(benchDTypes []dtypes.DType, axes, workers []int) {
	fmt.Println(titleStyle.Render("Concatenation Throughput"))
	setup := newPlainTable(false)
	setup.Row("inputs", fmt.Sprintf("%d of [%s x %s]",
		*flagInputs, humanize.Comma(int64(*flagRows)), humanize.Comma(int64(*flagCols))))
	setup.Row("grain", humanize.Bytes(uint64(*flagGrain)))
	setup.Row("reps per measurement", humanize.Comma(int64(*flagReps)))
	fmt.Println(setup.Render())

	bar := progressbar.NewOptions(len(benchDTypes)*len(axes)*len(workers),
		progressbar.OptionSetDescription("benchmarking"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("runs"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)

	results := newPlainTable(true)
	results.Row("DType", "Axis", "Workers", "Output", "Per Call", "Throughput")
	for _, dtype := range benchDTypes {
		for _, axis := range axes {
			inputs, output := benchTensors(dtype, axis)
			for _, numWorkers := range workers {
				perCall := measure(inputs, output, axis, numWorkers)
				bytesPerSecond := float64(output.Memory()) / perCall.Seconds()
				results.Row(
					dtype.String(),
					strconv.Itoa(axis),
					workersLabel(numWorkers),
					humanize.Bytes(uint64(output.Memory())),
					perCall.Round(time.Microsecond).String(),
					humanize.Bytes(uint64(bytesPerSecond))+"/s",
				)
				_ = bar.Add(1)
			}
			output.Finalize()
			for _, input := range inputs {
				input.Finalize()
			}
		}
	}
	fmt.Println()
	fmt.Println(results.Render())
}

// benchTensors creates the input tensors and a preallocated output for the given
// axis. Contents are all zeros: copy throughput does not depend on the values.
func benchTensors(dtype dtypes.DType, axis int) (inputs []*tensors.Tensor, output *tensors.Tensor) {
	inputShapes := make([]shapes.Shape, *flagInputs)
	for i := range inputShapes {
		inputShapes[i] = shapes.Make(dtype, *flagRows, *flagCols)
	}
	inputs = xslices.Map(inputShapes, tensors.FromShape)
	output = tensors.FromShape(must.M1(shapes.ConcatOutputShape(inputShapes, axis)))
	return
}

func measure(inputs []*tensors.Tensor, output *tensors.Tensor, axis, numWorkers int) time.Duration {
	engine := kernels.New(kernels.WithWorkers(numWorkers), kernels.WithGrainBytes(*flagGrain))
	defer engine.Close()

	// Warm-up run, also surfaces errors before the clock starts.
	must.M(engine.Cat(output, inputs, axis))
	start := time.Now()
	for range *flagReps {
		must.M(engine.Cat(output, inputs, axis))
	}
	return time.Since(start) / time.Duration(*flagReps)
}

func workersLabel(numWorkers int) string {
	if numWorkers <= 0 {
		return fmt.Sprintf("%d (all cores)", runtime.GOMAXPROCS(0))
	}
	return strconv.Itoa(numWorkers)
}

func parseInts(flagName, list string) []int {
	parts := strings.Split(list, ",")
	values := make([]int, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			klog.Errorf("Invalid number %q in -%s. See 'catbench -help'.", part, flagName)
			os.Exit(1)
		}
		values = append(values, value)
	}
	return values
}

func parseDTypes(list string) []dtypes.DType {
	parts := strings.Split(list, ",")
	parsed := make([]dtypes.DType, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		dtype, found := dtypes.MapOfNames[name]
		if !found {
			klog.Errorf("Unknown dtype %q in -dtypes. See 'catbench -help'.", name)
			os.Exit(1)
		}
		if dtype.IsComplex() {
			klog.Errorf("DType %s is not supported by the concatenation engine.", dtype)
			os.Exit(1)
		}
		parsed = append(parsed, dtype)
	}
	return parsed
}
