package main

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// snapshotStats summarizes a JSON export of the tracks table — the
// same shape GET /api/tracks returns — without decoding it into Go
// structs, for quick inspection of backups too large to diff by eye.
func snapshotStats(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Println("error reading snapshot:", err)
		return
	}

	result := gjson.ParseBytes(data)
	tracks := result.Get("tracks")
	if !tracks.IsArray() {
		fmt.Println("snapshot has no \"tracks\" array")
		return
	}

	byArtist := map[string]int{}
	var totalDurationMs int64
	count := 0

	tracks.ForEach(func(_, track gjson.Result) bool {
		count++
		byArtist[track.Get("artist").String()]++
		totalDurationMs += track.Get("durationMs").Int()
		return true
	})

	fmt.Printf("tracks: %d\n", count)
	fmt.Printf("distinct artists: %d\n", len(byArtist))
	fmt.Printf("total duration: %.1f hours\n", float64(totalDurationMs)/3600000)
}
