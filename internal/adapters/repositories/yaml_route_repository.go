package repositories

import (
	"commute-service/internal/domain"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutesYAML []byte

type routesFile struct {
	Locations map[string]locationConfig           `yaml:"locations"`
	Routes    map[domain.Direction][]routeConfig `yaml:"routes"`
}

type locationConfig struct {
	Label   string   `yaml:"label"`
	Address string   `yaml:"address"`
	Lat     *float64 `yaml:"lat,omitempty"`
	Lng     *float64 `yaml:"lng,omitempty"`
}

type routeConfig struct {
	Name     string          `yaml:"name"`
	Segments []segmentConfig `yaml:"segments"`
}

type segmentConfig struct {
	Kind      string        `yaml:"kind"`
	From      string        `yaml:"from"`
	To        string        `yaml:"to"`
	FromLabel string        `yaml:"from_label"`
	ToLabel   string        `yaml:"to_label"`
	Duration  time.Duration `yaml:"duration"`
	Mode      string        `yaml:"mode"`
	Direction string        `yaml:"direction"`
}

// YAMLRouteRepository serves statically configured routes read once from YAML.
// It implements ports.RouteRepository.
type YAMLRouteRepository struct {
	locations map[string]domain.Location
	routes    map[domain.Direction][]domain.RouteDescriptor
}

// Replace the address of a configured location, e.g. from HOME_ADDRESS.
// Empty addresses are ignored.
type AddressOverrides map[string]string

// NewYAMLRouteRepository reads routes from path, or the embedded defaults when
// path is empty.
func NewYAMLRouteRepository(path string, overrides AddressOverrides) (*YAMLRouteRepository, error) {
	data := defaultRoutesYAML
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("load routes: read %q: %w", path, err)
		}
	}
	return ParseRoutes(data, overrides)
}

func ParseRoutes(data []byte, overrides AddressOverrides) (*YAMLRouteRepository, error) {
	var f routesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load routes: parse yaml: %w", err)
	}

	locations := make(map[string]domain.Location, len(f.Locations))
	for key, lc := range f.Locations {
		loc := domain.Location{Key: key, Label: lc.Label, Address: lc.Address}
		if loc.Label == "" {
			loc.Label = key
		}
		if addr := overrides[key]; addr != "" {
			// An overridden address invalidates configured coordinates.
			loc.Address = addr
		} else if lc.Lat != nil && lc.Lng != nil {
			loc.Coords = &domain.Coordinates{Lat: *lc.Lat, Lng: *lc.Lng}
		}
		if loc.Query() == "" {
			return nil, fmt.Errorf("load routes: location %q has neither address nor coordinates", key)
		}
		locations[key] = loc
	}

	repo := &YAMLRouteRepository{
		locations: locations,
		routes:    make(map[domain.Direction][]domain.RouteDescriptor, len(f.Routes)),
	}

	var errs []error
	for dir, rcs := range f.Routes {
		if _, err := domain.ParseDirection(string(dir)); err != nil {
			errs = append(errs, fmt.Errorf("routes: %w", err))
			continue
		}
		for _, rc := range rcs {
			route, err := repo.buildRoute(rc)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", dir, err))
				continue
			}
			repo.routes[dir] = append(repo.routes[dir], route)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("load routes: %w", err)
	}

	return repo, nil
}

func (r *YAMLRouteRepository) buildRoute(rc routeConfig) (domain.RouteDescriptor, error) {
	route := domain.RouteDescriptor{Name: rc.Name}

	for i, sc := range rc.Segments {
		seg := domain.SegmentDescriptor{
			Kind:         domain.SegmentKind(sc.Kind),
			FromLabel:    sc.FromLabel,
			ToLabel:      sc.ToLabel,
			WalkDuration: sc.Duration,
			TransitMode:  domain.Mode(sc.Mode),
			BusDirection: domain.BusDirection(sc.Direction),
		}

		if seg.Kind != domain.KindWalk {
			from, ok := r.locations[sc.From]
			if !ok {
				return domain.RouteDescriptor{}, fmt.Errorf("route %q: segment %d: unknown location %q", rc.Name, i+1, sc.From)
			}
			to, ok := r.locations[sc.To]
			if !ok {
				return domain.RouteDescriptor{}, fmt.Errorf("route %q: segment %d: unknown location %q", rc.Name, i+1, sc.To)
			}
			seg.From, seg.To = from, to
			if seg.FromLabel == "" {
				seg.FromLabel = from.Label
			}
			if seg.ToLabel == "" {
				seg.ToLabel = to.Label
			}
		}

		route.Segments = append(route.Segments, seg)
	}

	if err := route.Validate(); err != nil {
		return domain.RouteDescriptor{}, err
	}
	return route, nil
}

// ListRoutes returns the routes for dir in configured order.
func (r *YAMLRouteRepository) ListRoutes(_ context.Context, dir domain.Direction) ([]domain.RouteDescriptor, error) {
	if _, err := domain.ParseDirection(string(dir)); err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}

	routes := r.routes[dir]
	out := make([]domain.RouteDescriptor, len(routes))
	for i, rt := range routes {
		out[i] = domain.RouteDescriptor{Name: rt.Name, Segments: slices.Clone(rt.Segments)}
	}
	return out, nil
}

// Location returns a configured location by key.
func (r *YAMLRouteRepository) Location(key string) (domain.Location, bool) {
	l, ok := r.locations[key]
	return l, ok
}
