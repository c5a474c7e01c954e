package dataset

import (
	"strconv"
	"strings"

	"github.com/cyverse/mockdata-pool/commons"
)

const (
	valuePrecision int = 15
)

// Line is a generated data record
type Line struct {
	Index int64
	Value float64
	Text  string
}

// Generator computes lines of the dataset, each line is a pure function of its index
type Generator struct {
	dataset commons.DatasetConfig
	step    float64
}

// NewGenerator creates a new Generator
func NewGenerator(dataset commons.DatasetConfig) *Generator {
	return &Generator{
		dataset: dataset,
		step:    dataset.Step(),
	}
}

// GetLineCount returns the number of lines in the dataset
func (gen *Generator) GetLineCount() int64 {
	return gen.dataset.LineCount
}

// GetValue returns the value of the line at the given index
func (gen *Generator) GetValue(index int64) float64 {
	return float64(index) * gen.step
}

// Generate returns the line at the given index
func (gen *Generator) Generate(index int64) (Line, error) {
	if index < 0 || index >= gen.dataset.LineCount {
		return Line{}, commons.NewOutOfBoundsError(index, gen.dataset.LineCount)
	}

	value := gen.GetValue(index)
	return Line{
		Index: index,
		Value: value,
		Text:  string(AppendLineText(nil, index, value)),
	}, nil
}

// GenerateAnnotated returns the line at the given index with the annotation suffix
func (gen *Generator) GenerateAnnotated(index int64) (Line, error) {
	line, err := gen.Generate(index)
	if err != nil {
		return Line{}, err
	}

	line.Text = Annotate(line.Text)
	return line, nil
}

// AppendLineText appends "[label] : value" to dst
func AppendLineText(dst []byte, label int64, value float64) []byte {
	dst = append(dst, '[')
	dst = strconv.AppendInt(dst, label, 10)
	dst = append(dst, "] : "...)
	return strconv.AppendFloat(dst, value, 'f', valuePrecision, 64)
}

// Annotate appends the annotation suffix unless the text already has it
func Annotate(text string) string {
	if strings.HasSuffix(text, commons.LineAnnotationSuffix) {
		return text
	}
	return text + commons.LineAnnotationSuffix
}
