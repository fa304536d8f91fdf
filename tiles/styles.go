package tiles

import (
	"fmt"
	"sort"
)

// Style is a named tile server.
type Style struct {
	Name    string
	URL     string
	Headers map[string]string
}

var styles = map[string]Style{
	"default":  {Name: "default", URL: "https://tile.openstreetmap.org/{z}/{x}/{y}.png"},
	"cyclosm":  {Name: "cyclosm", URL: "https://c.tile-cyclosm.openstreetmap.fr/cyclosm/{z}/{x}/{y}.png"},
	"toner":    {Name: "toner", URL: "https://tiles.stadiamaps.com/tiles/stamen_toner/{z}/{x}/{y}.png", Headers: map[string]string{"Referer": "https://mc.bbbike.org/"}},
	"positron": {Name: "positron", URL: "https://d.basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png"},
	"opentopo": {Name: "opentopo", URL: "https://a.tile.opentopomap.org/{z}/{x}/{y}.png"},
}

func LookupStyle(name string) (Style, error) {
	s, ok := styles[name]
	if !ok {
		return Style{}, fmt.Errorf("unknown map style %q, known styles: %v", name, StyleNames())
	}
	return s, nil
}

func StyleNames() []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UseStyle points the config at the named style. The cache root is left
// alone; CacheDir already keeps the tiles of each server apart.
func (c *FetcherConfig) UseStyle(name string) error {
	s, err := LookupStyle(name)
	if err != nil {
		return err
	}
	c.URLTemplate = s.URL
	c.Headers = s.Headers
	return nil
}
