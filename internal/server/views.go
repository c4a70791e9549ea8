package server

import (
	"github.com/maax3v3/colorbynumber"
)

type regionView struct {
	ID       int     `json:"id"`
	ColorNum int     `json:"color_num"`
	Size     int     `json:"size"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Bounds   [4]int  `json:"bounds"` // min x, min y, max x, max y (exclusive)
	Colored  bool    `json:"colored"`
}

func regionJSON(r colorbynumber.Region) regionView {
	return regionView{
		ID:       r.ID,
		ColorNum: r.ColorNum,
		Size:     r.Size,
		X:        r.X,
		Y:        r.Y,
		Bounds:   [4]int{r.Bounds.Min.X, r.Bounds.Min.Y, r.Bounds.Max.X, r.Bounds.Max.Y},
		Colored:  r.Colored,
	}
}

type templateView struct {
	ID          string       `json:"id"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Palette     []string     `json:"palette"`
	RegionCount int          `json:"region_count"`
	Unowned     int          `json:"unowned"`
	Regions     []regionView `json:"regions,omitempty"`
}

func summarize(id string, t *colorbynumber.Template, withRegions bool) templateView {
	v := templateView{
		ID:      id,
		Width:   t.Width(),
		Height:  t.Height(),
		Unowned: t.Unowned(),
	}
	for _, c := range t.Palette() {
		v.Palette = append(v.Palette, c.Hex())
	}
	regions := t.Regions()
	v.RegionCount = len(regions)
	if withRegions {
		v.Regions = make([]regionView, len(regions))
		for i, r := range regions {
			v.Regions[i] = regionJSON(r)
		}
	}
	return v
}

type colorProgress struct {
	ColorNum int `json:"color_num"`
	Done     int `json:"done"`
	Total    int `json:"total"`
}

type progressView struct {
	Percent  float64         `json:"percent"`
	Complete bool            `json:"complete"`
	Colors   []colorProgress `json:"colors"`
}

func progressOf(t *colorbynumber.Template) progressView {
	v := progressView{Percent: t.Percent(), Complete: t.Complete()}
	for n := 1; n <= t.NumColors(); n++ {
		done, total := t.ColorProgress(n)
		v.Colors = append(v.Colors, colorProgress{ColorNum: n, Done: done, Total: total})
	}
	return v
}
