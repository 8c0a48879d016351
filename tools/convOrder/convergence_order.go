package main

import (
	"bufio"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var (
	csvFile  string
	plotFile string
)

func main() {
	csvFilePtr := flag.String("csvFile", csvFile, "file containing entries of a convergence study")
	plotFilePtr := flag.String("plotFile", "", "image file for the error plot, the extension selects the format")
	flag.Parse()
	csvFile = *csvFilePtr
	plotFile = *plotFilePtr
	if len(csvFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	fmt.Printf("Input file: %v\n", csvFile)
	studies := readCSV(csvFile)
	titles := make([]string, 0, len(studies))
	for title := range studies {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	for _, title := range titles {
		cs := studies[title]
		fmt.Printf("Title = %s, Nodes = %d, Iterations = %d, Order = %5.2f\n",
			cs.title, cs.nodes, cs.iterations, cs.Order())
		for i := range cs.numSteps {
			fmt.Printf("%d, %v, %v\n", cs.numSteps[i], cs.dt[i], cs.err[i])
		}
	}
	if len(plotFile) != 0 {
		if err := plotStudies(studies, titles, plotFile); err != nil {
			panic(err)
		}
	}
}

type ConvergenceStudy struct {
	title             string
	nodes, iterations int
	numSteps          []int
	dt, err           []float64
}

func NewConvergenceStudy(title string, nodes, iterations int) *ConvergenceStudy {
	return &ConvergenceStudy{
		title:      title,
		nodes:      nodes,
		iterations: iterations,
	}
}

func (cs *ConvergenceStudy) Add(numSteps int, dt, err float64) {
	cs.numSteps = append(cs.numSteps, numSteps)
	cs.dt = append(cs.dt, dt)
	cs.err = append(cs.err, err)
}

// Order is the slope of the least squares line through log(err) over log(dt)
func (cs *ConvergenceStudy) Order() (order float64) {
	var (
		x = make([]float64, 0, len(cs.dt))
		y = make([]float64, 0, len(cs.dt))
	)
	for i := range cs.dt {
		if cs.err[i] > 0 {
			x = append(x, math.Log(cs.dt[i]))
			y = append(y, math.Log(cs.err[i]))
		}
	}
	if len(x) < 2 {
		return math.NaN()
	}
	_, order = stat.LinearRegression(x, y, nil, false)
	return
}

func readCSV(csvFile string) (studies map[string]*ConvergenceStudy) {
	var (
		records [][]string
		err     error
		f       *os.File
		ok      bool
		cs      *ConvergenceStudy
		dt, e   float64
	)
	studies = make(map[string]*ConvergenceStudy)
	if f, err = os.Open(csvFile); err != nil {
		panic(err)
	}
	defer f.Close()
	r := csv.NewReader(bufio.NewReader(f))
	if records, err = r.ReadAll(); err != nil {
		panic(err)
	}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		title, nodestxt, iterstxt, nstepstxt := rec[0], rec[1], rec[2], rec[3]
		nodes, _ := strconv.Atoi(nodestxt)
		iters, _ := strconv.Atoi(iterstxt)
		nsteps, _ := strconv.Atoi(nstepstxt)
		combTitle := title + nodestxt
		if cs, ok = studies[combTitle]; !ok {
			cs = NewConvergenceStudy(title, nodes, iters)
			studies[combTitle] = cs
		}
		_, _ = fmt.Sscanf(rec[4], "%g", &dt)
		_, _ = fmt.Sscanf(rec[5], "%g", &e)
		cs.Add(nsteps, dt, e)
	}
	return
}

func plotStudies(studies map[string]*ConvergenceStudy, titles []string, fileName string) (err error) {
	p := plot.New()
	p.Title.Text = "SDC convergence"
	p.X.Label.Text = "dt"
	p.Y.Label.Text = "relative error"
	p.X.Scale, p.Y.Scale = plot.LogScale{}, plot.LogScale{}
	p.X.Tick.Marker, p.Y.Tick.Marker = plot.LogTicks{Prec: -1}, plot.LogTicks{Prec: -1}
	var lines []interface{}
	for _, title := range titles {
		cs := studies[title]
		pts := make(plotter.XYs, 0, len(cs.dt))
		for i := range cs.dt {
			if cs.err[i] > 0 {
				pts = append(pts, plotter.XY{X: cs.dt[i], Y: cs.err[i]})
			}
		}
		lines = append(lines, fmt.Sprintf("%s(%d) order %4.2f", cs.title, cs.nodes, cs.Order()), pts)
	}
	if err = plotutil.AddLinePoints(p, lines...); err != nil {
		return
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, fileName)
}
