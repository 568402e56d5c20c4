// Command catalogcheck validates the sound and music catalogs of a game
// and reports entries whose assets are missing or cannot be decoded.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"sound-engine/internal/engine"
	"sound-engine/internal/filesystem"
	"sound-engine/internal/music"
	"sound-engine/internal/soundbank"
)

func main() {
	var (
		assets  = flag.String("assets", "./assets", "asset root directory")
		sounds  = flag.String("sounds", "sounds.cfg", "sound catalog, relative to the asset root")
		tracks  = flag.String("music", "music.cfg", "music catalog, relative to the asset root")
		ids     = flag.String("ids", "", "comma separated sound IDs (default: the demo's IDs)")
		archive = flag.String("gpk", "", "GPK archive to mount before checking")
		rate    = flag.Int("rate", 48000, "sample rate to decode sounds at")
	)
	flag.Parse()

	fs := filesystem.NewManager(*assets)
	if err := fs.Init(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer fs.Close()
	if *archive != "" {
		if err := fs.MountGPK(*archive); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	known := engine.SoundIDs
	if *ids != "" {
		known = nil
		for _, id := range strings.Split(*ids, ",") {
			known = append(known, soundbank.ID(strings.TrimSpace(id)))
		}
	}

	failed := checkSounds(fs, *sounds, known, *rate)
	failed = checkMusic(fs, *tracks) || failed
	if failed {
		os.Exit(1)
	}
	fmt.Println("All catalogs OK")
}

func checkSounds(fs *filesystem.Manager, path string, known []soundbank.ID, rate int) bool {
	fmt.Printf("Checking sound catalog: %s\n", path)
	fmt.Println("============================================================")

	bank, err := soundbank.Load(fs, path, known, rate)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return true
	}

	failed := false
	for _, id := range bank.IDs() {
		snd := bank.Get(id)
		switch {
		case !snd.OK():
			fmt.Printf("  %-20s UNPLAYABLE %v\n", id, snd.Files)
			failed = true
		default:
			frames := 0
			for _, seg := range snd.Segments {
				frames += seg.Len()
			}
			kind := "one-shot"
			if snd.Looped() {
				kind = "looped"
			}
			fmt.Printf("  %-20s %-8s %d segment(s), %.2fs, dist %.0f\n",
				id, kind, len(snd.Segments), float64(frames)/float64(rate), snd.MaxDist)
		}
	}
	for _, id := range bank.Missing() {
		fmt.Printf("  %-20s MISSING from catalog\n", id)
		failed = true
	}
	return failed
}

func checkMusic(fs *filesystem.Manager, path string) bool {
	fmt.Printf("\nChecking music catalog: %s\n", path)
	fmt.Println("============================================================")

	catalog, err := music.LoadCatalog(fs, path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return true
	}

	failed := false
	for i := range catalog.Tracks {
		t := &catalog.Tracks[i]
		fmt.Printf("--- Track %d ---\n", i)
		if t.IsModule() && !fs.Exists(t.Song) {
			fmt.Printf("  song %s: file not found\n", t.Song)
			failed = true
		}
		for l := music.LevelPeace; l < music.NumLevels; l++ {
			if t.IsModule() {
				fmt.Printf("  %-8s subsong %d\n", l, t.Subsong(l))
				continue
			}
			status := "ok"
			if !fs.Exists(t.File(l)) {
				status = "file not found"
				failed = true
			}
			fmt.Printf("  %-8s %s (%s)\n", l, t.File(l), status)
		}
	}
	return failed
}
