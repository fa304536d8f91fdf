package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/carlmjohnson/versioninfo"
	"github.com/iancoleman/strcase"
	"github.com/urfave/cli/v2"

	"gpx_tile_map/tiles"
)

const CONFIG string = `config`
const ZOOM string = `zoom`
const IMAGEWIDTH string = `image-width`
const LINEWIDTH string = `line-width`
const LINECOLOR string = `line-color`
const OUTPUT string = `output`
const STYLE string = `style`
const TILEURL string = `tile-url`
const CACHEDIR string = `cache-dir`
const WORKERS string = `workers`
const STRICT string = `strict`
const ATTRIBUTION string = `attribution`
const TIMEOUT string = `timeout`
const METRICSFILE string = `metrics-file`

func envVars(name string) []string {
	return []string{"GPXMAP_" + strcase.ToScreamingSnake(name)}
}

func main() {
	err := newApp().Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

//nolint:funlen
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "gpxmap"
	app.Usage = "Draw GPX tracks on a map stitched together from web map tiles"
	app.Version = versioninfo.Short()

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    CONFIG,
			Aliases: []string{"c"},
			Usage:   "YAML config file, defaults to ./gpxmap.yaml when present",
			EnvVars: envVars(CONFIG),
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "draw",
			Usage:     "Render the tracks of a GPX file, or of every GPX file in a directory, to a PNG",
			ArgsUsage: "<path>",
			Action:    draw,
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    ZOOM,
					Aliases: []string{"z"},
					Usage:   "Tile zoom level (0-22)",
					Value:   13,
					EnvVars: envVars(ZOOM),
				},
				&cli.IntFlag{
					Name:    IMAGEWIDTH,
					Aliases: []string{"w"},
					Usage:   "Maximum width of the image in pixels. The actual width is a multiple of the number of tiles across",
					Value:   2048,
					EnvVars: envVars(IMAGEWIDTH),
				},
				&cli.IntFlag{
					Name:    LINEWIDTH,
					Usage:   "Width of the drawn track in pixels",
					Value:   8,
					EnvVars: envVars(LINEWIDTH),
				},
				&cli.StringFlag{
					Name:    LINECOLOR,
					Usage:   "Colour of the drawn track, e.g. #FF0000",
					Value:   "#FF0000",
					EnvVars: envVars(LINECOLOR),
				},
				&cli.StringFlag{
					Name:    OUTPUT,
					Aliases: []string{"o"},
					Usage:   "Output PNG",
					Value:   "output.png",
					EnvVars: envVars(OUTPUT),
				},
				&cli.StringFlag{
					Name:    STYLE,
					Aliases: []string{"s"},
					Usage:   "Named tile server: " + strings.Join(tiles.StyleNames(), ", "),
					EnvVars: envVars(STYLE),
				},
				&cli.StringFlag{
					Name:    TILEURL,
					Usage:   "Tile URL template with {z}, {x} and {y} placeholders. Overrides --style",
					EnvVars: envVars(TILEURL),
				},
				&cli.StringFlag{
					Name:    CACHEDIR,
					Usage:   "Root directory for cached tiles. Each tile server gets its own subdirectory",
					EnvVars: envVars(CACHEDIR),
				},
				&cli.IntFlag{
					Name:    WORKERS,
					Usage:   "Number of tiles fetched in parallel, 0 for one per CPU",
					EnvVars: envVars(WORKERS),
				},
				&cli.BoolFlag{
					Name:    STRICT,
					Usage:   "Fail when a tile cannot be fetched instead of leaving it blank",
					EnvVars: envVars(STRICT),
				},
				&cli.StringFlag{
					Name:    ATTRIBUTION,
					Usage:   "Map data credit printed in the bottom-right corner, empty to omit",
					EnvVars: envVars(ATTRIBUTION),
				},
				&cli.DurationFlag{
					Name:    TIMEOUT,
					Usage:   "Deadline for the whole render, 0 for none",
					EnvVars: envVars(TIMEOUT),
				},
				&cli.StringFlag{
					Name:    METRICSFILE,
					Usage:   "Write fetch and render metrics in Prometheus text format to this file",
					EnvVars: envVars(METRICSFILE),
				},
			},
		},
		{
			Name:  "styles",
			Usage: "List the named tile servers",
			Action: func(c *cli.Context) error {
				for _, name := range tiles.StyleNames() {
					s, _ := tiles.LookupStyle(name)
					fmt.Fprintf(c.App.Writer, "%-10s %s\n", name, s.URL)
				}
				return nil
			},
		},
	}
	return app
}
