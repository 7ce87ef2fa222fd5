// voxeltool is a CLI utility for line density voxel grid files.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Faultbox/moment-oit/pkg/voxel"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "convert":
		err = cmdConvert(args)
	case "ao":
		err = cmdAO(args)
	case "lods":
		err = cmdLODs(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`voxeltool - line density voxel grid utility

Usage:
  voxeltool <command> [options]

Commands:
  info <grid>                  Show header and array sizes
  convert <in> <out>           Rewrite a grid; compression follows the output
                               extension (.zst, .gz or none)
  ao [-hair] <in> <out>        Recompute ambient occlusion factors from the
                               densities
  lods <grid>                  Show the density and occupancy pyramids

Examples:
  voxeltool info tornado.voxel
  voxeltool convert tornado.voxel tornado.voxel.zst
  voxeltool ao tornado.voxel.zst tornado-ao.voxel.zst`)
}

func cmdInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: voxeltool info <grid>")
	}
	g, err := voxel.LoadFile(args[0])
	if err != nil {
		return err
	}
	printInfo(os.Stdout, args[0], g)
	return nil
}

func cmdConvert(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: voxeltool convert <in> <out>")
	}
	g, err := voxel.LoadFile(args[0])
	if err != nil {
		return err
	}
	if err := voxel.SaveFile(args[1], g); err != nil {
		return err
	}
	fmt.Printf("Wrote %s (%s)\n", args[1], voxel.CompressionFor(args[1]))
	return nil
}

func cmdAO(args []string) error {
	fs := flag.NewFlagSet("ao", flag.ExitOnError)
	hair := fs.Bool("hair", false, "Use the hair occlusion mapping regardless of the data type")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: voxeltool ao [-hair] <in> <out>")
	}
	g, err := voxel.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if err := RecomputeAO(g, *hair); err != nil {
		return err
	}
	if err := voxel.SaveFile(fs.Arg(1), g); err != nil {
		return err
	}
	fmt.Printf("Wrote %s with %d AO factors\n", fs.Arg(1), len(g.AOFactors))
	return nil
}

func cmdLODs(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: voxeltool lods <grid>")
	}
	g, err := voxel.LoadFile(args[0])
	if err != nil {
		return err
	}
	rows, err := LODSummary(g)
	if err != nil {
		return err
	}
	fmt.Printf("%-6s %-14s %12s %12s\n", "Level", "Size", "Mean density", "Occupied")
	for _, r := range rows {
		fmt.Printf("%-6d %-14s %12.5f %11.1f%%\n", r.Level, r.Size, r.MeanDensity, 100*r.Occupied)
	}
	return nil
}
