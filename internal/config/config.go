// Package config loads ringconv settings from a TOML file and optional
// site metadata from an XML sheet.
package config

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/FocuswithJustin/ringconv/core/errors"
	"github.com/FocuswithJustin/ringconv/core/series"
	"github.com/FocuswithJustin/ringconv/core/xml"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "ringconv.toml"

// Config is the resolved configuration.
type Config struct {
	Logging  LoggingConfig
	Defaults series.Defaults
	Catras   CatrasConfig
	Catalog  CatalogConfig
	Store    StoreConfig
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  string
	Format string
}

// CatrasConfig holds CATRAS codec options.
type CatrasConfig struct {
	ByteOrder binary.ByteOrder
}

// CatalogConfig locates the SQLite series catalog.
type CatalogConfig struct {
	Path string
}

// StoreConfig locates the content-addressed output store.
type StoreConfig struct {
	Path     string
	Compress bool
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Defaults: series.Defaults{
			Unit: series.UnitHundredthMM,
			Kind: series.KindRaw,
		},
		Catras:  CatrasConfig{ByteOrder: binary.LittleEndian},
		Catalog: CatalogConfig{Path: "ringconv.db"},
		Store:   StoreConfig{Path: filepath.Join(".ringconv", "store")},
	}
}

type fileConfig struct {
	Logging struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"logging"`
	Defaults struct {
		SiteCode     string  `toml:"site_code"`
		SiteName     string  `toml:"site_name"`
		SpeciesCode  string  `toml:"species_code"`
		SpeciesName  string  `toml:"species_name"`
		StateCountry string  `toml:"state_country"`
		Investigator string  `toml:"investigator"`
		UserID       string  `toml:"user_id"`
		Elevation    float64 `toml:"elevation"`
		Latitude     float64 `toml:"latitude"`
		Longitude    float64 `toml:"longitude"`
		CompDate     string  `toml:"comp_date"`
		Unit         string  `toml:"unit"`
		Kind         string  `toml:"kind"`
		SiteXML      string  `toml:"site_xml"`
	} `toml:"defaults"`
	Catras struct {
		ByteOrder string `toml:"byte_order"`
	} `toml:"catras"`
	Catalog struct {
		Path string `toml:"path"`
	} `toml:"catalog"`
	Store struct {
		Path     string `toml:"path"`
		Compress string `toml:"compress"`
	} `toml:"store"`
}

// Load reads path over the built-in defaults. Keys absent from the file
// keep their default values. A site_xml entry is resolved relative to the
// configuration file.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.NewValidation("config", fmt.Sprintf("unknown key %s", undecoded[0]))
	}

	str := func(key, v string, dst *string) {
		if meta.IsDefined(strings.Split(key, ".")...) {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, v float64, dst **float64) {
		if meta.IsDefined(strings.Split(key, ".")...) {
			f := v
			*dst = &f
		}
	}

	str("logging.level", raw.Logging.Level, &cfg.Logging.Level)
	str("logging.format", raw.Logging.Format, &cfg.Logging.Format)

	d := &cfg.Defaults
	str("defaults.site_code", raw.Defaults.SiteCode, &d.SiteCode)
	str("defaults.site_name", raw.Defaults.SiteName, &d.SiteName)
	str("defaults.species_code", raw.Defaults.SpeciesCode, &d.SpeciesCode)
	str("defaults.species_name", raw.Defaults.SpeciesName, &d.SpeciesName)
	str("defaults.state_country", raw.Defaults.StateCountry, &d.StateCountry)
	str("defaults.investigator", raw.Defaults.Investigator, &d.Investigator)
	str("defaults.user_id", raw.Defaults.UserID, &d.UserID)
	num("defaults.elevation", raw.Defaults.Elevation, &d.Elevation)
	num("defaults.latitude", raw.Defaults.Latitude, &d.Latitude)
	num("defaults.longitude", raw.Defaults.Longitude, &d.Longitude)

	if meta.IsDefined("defaults", "comp_date") {
		t, err := time.Parse(series.CompDateLayout, strings.TrimSpace(raw.Defaults.CompDate))
		if err != nil {
			return Config{}, errors.NewValidation("defaults.comp_date", "expected yyyyMMdd")
		}
		d.CompDate = t
	}
	if meta.IsDefined("defaults", "unit") {
		u, err := ParseUnit(raw.Defaults.Unit)
		if err != nil {
			return Config{}, err
		}
		d.Unit = u
	}
	if meta.IsDefined("defaults", "kind") {
		k := series.Kind(strings.TrimSpace(raw.Defaults.Kind))
		switch k {
		case series.KindRaw, series.KindTreeCurve, series.KindChronology:
			d.Kind = k
		default:
			return Config{}, errors.NewValidation("defaults.kind", fmt.Sprintf("unknown kind %q", k))
		}
	}

	if meta.IsDefined("catras", "byte_order") {
		order, err := ParseByteOrder(raw.Catras.ByteOrder)
		if err != nil {
			return Config{}, err
		}
		cfg.Catras.ByteOrder = order
	}

	str("catalog.path", raw.Catalog.Path, &cfg.Catalog.Path)
	str("store.path", raw.Store.Path, &cfg.Store.Path)
	if meta.IsDefined("store", "compress") {
		switch strings.ToLower(strings.TrimSpace(raw.Store.Compress)) {
		case "xz":
			cfg.Store.Compress = true
		case "", "none":
			cfg.Store.Compress = false
		default:
			return Config{}, errors.NewValidation("store.compress", fmt.Sprintf("unsupported compression %q", raw.Store.Compress))
		}
	}

	if meta.IsDefined("defaults", "site_xml") {
		sheet := strings.TrimSpace(raw.Defaults.SiteXML)
		if !filepath.IsAbs(sheet) {
			sheet = filepath.Join(filepath.Dir(path), sheet)
		}
		if err := LoadSiteXML(sheet, d); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// LoadOptional reads path when it exists and returns the defaults
// otherwise. An empty path means DefaultFile.
func LoadOptional(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return Config{}, errors.NewIO("stat", path, err)
	}
	return Load(path)
}

// ParseUnit maps a unit name to a series.Unit.
func ParseUnit(s string) (series.Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1/100 mm", "hundredth", "0.01mm", "0.01 mm":
		return series.UnitHundredthMM, nil
	case "micrometre", "micrometer", "um", "µm":
		return series.UnitMicrometre, nil
	case "index":
		return series.UnitIndex, nil
	}
	return series.UnitUnknown, errors.NewValidation("unit", fmt.Sprintf("unknown unit %q", s))
}

// ParseByteOrder maps "little" or "big" to a byte order.
func ParseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "little", "little-endian", "le", "":
		return binary.LittleEndian, nil
	case "big", "big-endian", "be":
		return binary.BigEndian, nil
	}
	return nil, errors.NewValidation("byte_order", fmt.Sprintf("unknown byte order %q", s))
}

// LoadSiteXML fills empty fields of d from a site metadata sheet:
//
//	<site code="ABC">
//	  <name>…</name>
//	  <species code="PIPO">Ponderosa Pine</species>
//	  <location country="…"><latitude/><longitude/><elevation/></location>
//	  <investigator>…</investigator>
//	</site>
func LoadSiteXML(path string, d *series.Defaults) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.NewIO("read", path, err)
	}
	doc, err := xml.Parse(data)
	if err != nil {
		return errors.NewParse("site xml", path, err.Error())
	}
	root := doc.Root()
	if root == nil || root.Name() != "site" {
		return errors.NewParse("site xml", path, "root element must be <site>")
	}

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	text := func(expr string) string {
		v, _ := doc.Text(expr)
		return v
	}
	attr := func(expr, name string) string {
		n, _ := doc.XPathFirst(expr)
		if n == nil {
			return ""
		}
		return n.Attr(name)
	}

	fill(&d.SiteCode, root.Attr("code"))
	fill(&d.SiteName, text("/site/name"))
	fill(&d.SpeciesCode, attr("/site/species", "code"))
	fill(&d.SpeciesName, text("/site/species"))
	fill(&d.StateCountry, attr("/site/location", "country"))
	fill(&d.Investigator, text("/site/investigator"))

	for _, f := range []struct {
		expr string
		dst  **float64
	}{
		{"/site/location/latitude", &d.Latitude},
		{"/site/location/longitude", &d.Longitude},
		{"/site/location/elevation", &d.Elevation},
	} {
		v := text(f.expr)
		if v == "" || *f.dst != nil {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return errors.NewParse("site xml", path, fmt.Sprintf("%s: %q is not a number", f.expr, v))
		}
		*f.dst = &n
	}
	return nil
}
