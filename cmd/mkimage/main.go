// Command mkimage builds FFAT disk images from a host directory tree and
// inspects existing images.
package main

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli/v2"

	"github.com/JM4ier/bitOS/blockdev"
	"github.com/JM4ier/bitOS/ffat"
	"github.com/JM4ier/bitOS/vpath"
)

func main() {
	app := cli.App{
		Usage: "Build and inspect FFAT disk images",
		Commands: []*cli.Command{
			{
				Name:      "build",
				Usage:     "Format a new image and mirror a host directory into it",
				Action:    buildImage,
				ArgsUsage: "IMAGE_PATH SOURCE_DIR",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "blocks",
						Usage: "number of 4096-byte blocks in the new image",
						Value: 4096,
					},
				},
			},
			{
				Name:      "inspect",
				Usage:     "Mount an image read-only and print its directory tree",
				Action:    inspectImage,
				ArgsUsage: "IMAGE_PATH",
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("mkimage: %s", err.Error())
	}
}

func buildImage(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return cli.Exit("expected IMAGE_PATH and SOURCE_DIR", 1)
	}
	imagePath := c.Args().Get(0)
	sourceDir := c.Args().Get(1)
	blocks := c.Uint64("blocks")

	device := blockdev.NewVector(ffat.SectorSize, blocks)
	engine, err := ffat.Format(device)
	if err != nil {
		return fmt.Errorf("formatting image: %w", err)
	}

	var result *multierror.Error
	err = filepath.WalkDir(sourceDir, func(hostPath string, d fs.DirEntry, err error) error {
		if err != nil {
			result = multierror.Append(result, err)
			return nil
		}
		rel, err := filepath.Rel(sourceDir, hostPath)
		if err != nil || rel == "." {
			return nil
		}
		target := vpath.FromString(filepath.ToSlash(rel))

		if d.IsDir() {
			if err := engine.CreateDir(target); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", rel, err))
			}
			return nil
		}

		if err := engine.CreateFile(target); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rel, err))
			return nil
		}
		if err := copyFileContents(engine, target, hostPath); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rel, err))
		}
		return nil
	})
	if err != nil {
		result = multierror.Append(result, err)
	}

	if err := os.WriteFile(imagePath, device.Bytes(), 0o644); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func copyFileContents(engine *ffat.Engine, target vpath.Path, hostPath string) error {
	data, err := os.ReadFile(hostPath)
	if err != nil {
		return err
	}
	wp, err := engine.OpenWrite(target)
	if err != nil {
		return err
	}
	return engine.Write(wp, data)
}

func inspectImage(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit("expected IMAGE_PATH", 1)
	}
	data, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return err
	}
	device := blockdev.NewROM(data, ffat.SectorSize)
	engine, err := ffat.Mount(device)
	if err != nil {
		return fmt.Errorf("mounting image: %w", err)
	}
	return printTree(engine, vpath.Root(), 0)
}

func printTree(engine *ffat.Engine, path vpath.Path, depth int) error {
	names, err := engine.ReadDir(path)
	if err != nil {
		return err
	}
	for _, name := range names {
		child := path.Concat(name)
		isDir, err := engine.ExistsDir(child)
		if err != nil {
			return err
		}
		fmt.Printf("%*s%s\n", depth*2, "", name.String())
		if isDir {
			if err := printTree(engine, child, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
