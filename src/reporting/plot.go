package reporting

import (
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/will-rowe/galah/src/pipeline"
)

// HistogramBins is the number of bins used in the ANI histogram
const HistogramBins = 50

// ANIHistogram collects ANI values and plots their distribution
type ANIHistogram struct {
	values plotter.Values
}

// NewANIHistogram is the constructor
func NewANIHistogram() *ANIHistogram {
	return &ANIHistogram{}
}

// Add records the ANI of a distance record
func (ANIHistogram *ANIHistogram) Add(r pipeline.DistanceRecord) error {
	ANIHistogram.values = append(ANIHistogram.values, r.ANI)
	return nil
}

// Len is the number of values collected
func (ANIHistogram *ANIHistogram) Len() int {
	return len(ANIHistogram.values)
}

// Save plots the histogram, the image format is taken from the file extension
func (ANIHistogram *ANIHistogram) Save(fileName string) error {
	if len(ANIHistogram.values) == 0 {
		return errors.New("no distances to plot")
	}
	p, err := plot.New()
	if err != nil {
		return errors.Wrap(err, "could not create plot")
	}
	p.Title.Text = "pairwise MinHash ANI"
	p.X.Label.Text = "ANI (%)"
	p.Y.Label.Text = "number of genome pairs"
	h, err := plotter.NewHist(ANIHistogram.values, HistogramBins)
	if err != nil {
		return errors.Wrap(err, "could not bin distances")
	}
	p.Add(h)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, fileName); err != nil {
		return errors.Wrapf(err, "could not save plot to %v", fileName)
	}
	return nil
}
