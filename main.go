package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/eseris/psxcore/psx"
)

func main() {
	// parse arguments
	biosPath := flag.String("bios", "SCPH1001.BIN", "path to the BIOS file")
	headless := flag.Bool("headless", false, "run without a window")
	flag.Parse()

	// start emulator
	bios := loadBios(*biosPath)
	console := psx.NewPSX(bios)

	if *headless {
		for {
			console.RunFrame()
		}
	}

	ebiten.SetWindowSize(psx.WINDOW_WIDTH, psx.WINDOW_HEIGHT)
	ebiten.SetWindowTitle("psxcore")
	if err := ebiten.RunGame(psx.NewFrontend(console)); err != nil {
		log.Fatal(err)
	}
}

func loadBios(path string) *psx.BIOS {
	log.Printf("loading bios \"%s\"", path)
	start := time.Now()

	// read bios
	file, err := os.Open(path)
	if err != nil {
		panic(err)
	}
	defer file.Close()

	// load bios
	bios, err := psx.LoadBIOS(file)
	if err != nil {
		panic(err)
	}

	log.Printf("loaded bios in %s", time.Since(start))
	return bios
}
