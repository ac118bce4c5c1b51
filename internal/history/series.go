package history

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"bloodage/internal/bloodwork"
	"bloodage/internal/calculator"
)

// DefaultMaxAge is the largest age accepted from a results file.
const DefaultMaxAge = 150.0

// Sample is a numeric age read from a results file.
type Sample struct {
	Date time.Time
	Age  float64
}

// Excluded is a numeric age dropped as implausible.
type Excluded struct {
	Date string
	Age  float64
}

// Series is the usable content of one results file.
type Series struct {
	Column   string
	Samples  []Sample
	Excluded []Excluded
}

// LoadSeries reads the numeric ages in column. Statuses, blanks, unparseable
// dates and zero are skipped as missing. Ages below zero or above threshold
// are reported in Excluded. A threshold <= 0 selects DefaultMaxAge. Later
// rows win when a date repeats.
func LoadSeries(path, column string, threshold float64) (Series, error) {
	if threshold <= 0 {
		threshold = DefaultMaxAge
	}
	f, err := os.Open(path)
	if err != nil {
		return Series{}, fmt.Errorf("open results: %w", err)
	}
	defer f.Close()

	records, cols, err := readTable(f, ColDate, column)
	if err != nil {
		return Series{}, fmt.Errorf("%s: %w", path, err)
	}

	s := Series{Column: column}
	byDate := make(map[time.Time]float64)
	for _, rec := range records {
		raw := cell(rec, cols[column])
		age, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(age) || math.IsInf(age, 0) || age == 0 {
			continue
		}
		date, err := bloodwork.ParseDate(cell(rec, cols[ColDate]))
		if err != nil {
			continue
		}
		if age < 0 || age > threshold {
			s.Excluded = append(s.Excluded, Excluded{Date: date.Format(bloodwork.DateLayout), Age: age})
			continue
		}
		byDate[date] = age
	}
	for d, a := range byDate {
		s.Samples = append(s.Samples, Sample{Date: d, Age: a})
	}
	sort.Slice(s.Samples, func(i, j int) bool { return s.Samples[i].Date.Before(s.Samples[j].Date) })
	return s, nil
}

// Point is an estimated age beside the chronological age on the same date.
type Point struct {
	Date          time.Time
	Estimated     float64
	Chronological float64
	Delta         float64
}

// Join pairs every sample with the chronological age on its date.
func Join(s Series, birth time.Time) []Point {
	points := make([]Point, 0, len(s.Samples))
	for _, smp := range s.Samples {
		chron := float64(calculator.ChronologicalAge(birth, smp.Date))
		points = append(points, Point{
			Date:          smp.Date,
			Estimated:     smp.Age,
			Chronological: chron,
			Delta:         round1(smp.Age - chron),
		})
	}
	return points
}

// Combined holds two series on a shared date axis. A nil entry means the
// calculator has no age for that date.
type Combined struct {
	Dates         []time.Time
	Chronological []float64
	Bortz         []*float64
	BortzDelta    []*float64
	Levine        []*float64
	LevineDelta   []*float64
}

// JoinCombined outer-joins the Bortz and Levine series by exact date.
func JoinCombined(bortz, levine Series, birth time.Time) Combined {
	b := ageByDate(bortz)
	l := ageByDate(levine)

	var dates []time.Time
	for d := range b {
		dates = append(dates, d)
	}
	for d := range l {
		if _, ok := b[d]; !ok {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	c := Combined{Dates: dates}
	for _, d := range dates {
		chron := float64(calculator.ChronologicalAge(birth, d))
		c.Chronological = append(c.Chronological, chron)
		age, delta := side(b, d, chron)
		c.Bortz = append(c.Bortz, age)
		c.BortzDelta = append(c.BortzDelta, delta)
		age, delta = side(l, d, chron)
		c.Levine = append(c.Levine, age)
		c.LevineDelta = append(c.LevineDelta, delta)
	}
	return c
}

func ageByDate(s Series) map[time.Time]float64 {
	m := make(map[time.Time]float64, len(s.Samples))
	for _, smp := range s.Samples {
		m[smp.Date] = smp.Age
	}
	return m
}

func side(ages map[time.Time]float64, d time.Time, chron float64) (*float64, *float64) {
	age, ok := ages[d]
	if !ok {
		return nil, nil
	}
	delta := round1(age - chron)
	return &age, &delta
}

// round1 rounds to one decimal so float noise such as 56.2-56 reads as 0.2.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
