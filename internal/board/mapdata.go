package board

import (
	"embed"
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

//go:embed maps/*.hcl
var mapFS embed.FS

// Link is a connection between two cities.
type Link struct {
	Nodes [2]string `json:"nodes"`
	Cost  int       `json:"cost"`
}

// Map is the static city graph. Cities maps each city to the players who
// have built there.
type Map struct {
	Model  string              `json:"model"`
	Zones  map[string][]string `json:"zones"`
	Cities map[string][]string `json:"cities"`
	Links  []Link              `json:"links"`
}

type mapFile struct {
	Maps []mapBlock `hcl:"map,block"`
}

type mapBlock struct {
	Name  string      `hcl:"name,label"`
	Zones []zoneBlock `hcl:"zone,block"`
	Links []linkBlock `hcl:"link,block"`
}

type zoneBlock struct {
	Name   string   `hcl:"name,label"`
	Cities []string `hcl:"cities"`
}

type linkBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
	Cost int    `hcl:"cost"`
}

// LoadMap decodes the named embedded map table.
func LoadMap(name string) (*Map, error) {
	filename := "maps/" + name + ".hcl"
	src, err := mapFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("unknown map %q: %w", name, err)
	}
	return ParseMap(src, filename, name)
}

// ParseMap decodes HCL map source and returns the block with the given name.
func ParseMap(src []byte, filename, name string) (*Map, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse map: %s", diags.Error())
	}

	var decoded mapFile
	if diags := gohcl.DecodeBody(file.Body, nil, &decoded); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode map: %s", diags.Error())
	}

	i := slices.IndexFunc(decoded.Maps, func(m mapBlock) bool { return m.Name == name })
	if i < 0 {
		return nil, fmt.Errorf("map %q not found in %s", name, filename)
	}
	block := decoded.Maps[i]

	m := &Map{
		Model:  block.Name,
		Zones:  make(map[string][]string, len(block.Zones)),
		Cities: map[string][]string{},
	}
	for _, z := range block.Zones {
		m.Zones[z.Name] = z.Cities
		for _, city := range z.Cities {
			if _, dup := m.Cities[city]; dup {
				return nil, fmt.Errorf("map %q: city %q listed twice", name, city)
			}
			m.Cities[city] = []string{}
		}
	}
	for _, l := range block.Links {
		for _, city := range []string{l.From, l.To} {
			if _, ok := m.Cities[city]; !ok {
				return nil, fmt.Errorf("map %q: link references unknown city %q", name, city)
			}
		}
		if l.Cost < 0 {
			return nil, fmt.Errorf("map %q: link %s-%s has negative cost", name, l.From, l.To)
		}
		m.Links = append(m.Links, Link{Nodes: [2]string{l.From, l.To}, Cost: l.Cost})
	}

	return m, nil
}

// Neighbours returns the cities linked to city with their connection cost.
func (m *Map) Neighbours(city string) map[string]int {
	out := map[string]int{}
	for _, l := range m.Links {
		switch city {
		case l.Nodes[0]:
			out[l.Nodes[1]] = l.Cost
		case l.Nodes[1]:
			out[l.Nodes[0]] = l.Cost
		}
	}
	return out
}
