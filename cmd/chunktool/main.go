// chunktool is a CLI utility for inspecting voxelworld save directories.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/kivi-man/voxelworld/internal/game/block"
	"github.com/kivi-man/voxelworld/internal/save"
	"github.com/kivi-man/voxelworld/pkg/formats"
	"github.com/kivi-man/voxelworld/pkg/math"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "dump":
		cmdDump(args)
	case "verify":
		cmdVerify(args)
	case "seed":
		cmdSeed(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`chunktool - voxelworld save inspector

Usage:
  chunktool <command> [-storage files|leveldb] <save-dir> [args]

Commands:
  info <dir>            Show seed, chunk count and player
  dump <dir> <x y z>    Show block counts and water levels of one chunk
  verify <dir>          Decode every chunk and report corrupt ones
  seed <dir>            Print the world seed

Examples:
  chunktool info save
  chunktool dump save 0 4 -1
  chunktool verify -storage leveldb save`)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// openStore parses the shared flags and opens the save named by the first
// positional argument.
func openStore(name string, args []string, minArgs int, usage string) (save.Store, []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	storage := fs.String("storage", save.StorageFiles, "Save backend: files or leveldb")
	fs.Parse(args)

	if fs.NArg() < minArgs {
		fmt.Fprintln(os.Stderr, "Usage: chunktool "+usage)
		os.Exit(1)
	}
	dir := fs.Arg(0)
	if _, err := os.Stat(dir); err != nil {
		fail(err)
	}
	store, err := save.Open(dir, *storage)
	if err != nil {
		fail(err)
	}
	return store, fs.Args()[1:]
}

func cmdInfo(args []string) {
	store, _ := openStore("info", args, 1, "info <dir>")
	defer store.Close()

	fmt.Printf("Seed:    %s\n", readSeed(store))

	keys, err := store.Keys("chunk_")
	if err != nil {
		fail(err)
	}
	fmt.Printf("Chunks:  %d\n", len(keys))

	if data, err := store.Get(save.PlayerKey); err == nil {
		if p, err := formats.ParsePlayer(data); err == nil {
			fmt.Printf("Player:  (%.2f, %.2f, %.2f) yaw %.1f pitch %.1f\n", p.X, p.Y, p.Z, p.Yaw, p.Pitch)
		} else {
			fmt.Printf("Player:  corrupt (%v)\n", err)
		}
	} else {
		fmt.Println("Player:  none")
	}

	if data, err := store.Get(save.MobsKey); err == nil {
		if r, err := formats.ParseMobs(data); err == nil {
			fmt.Printf("Mobs:    %d in %d chunks\n", r.Count(), len(r))
		} else {
			fmt.Printf("Mobs:    corrupt (%v)\n", err)
		}
	}
}

func readSeed(store save.Store) string {
	data, err := store.Get(save.SeedKey)
	if errors.Is(err, save.ErrNotFound) {
		return "none"
	}
	if err != nil {
		return fmt.Sprintf("unreadable (%v)", err)
	}
	seed, err := formats.ParseSeed(data)
	if err != nil {
		return fmt.Sprintf("corrupt (%v)", err)
	}
	return strconv.FormatInt(seed, 10)
}

func cmdSeed(args []string) {
	store, _ := openStore("seed", args, 1, "seed <dir>")
	defer store.Close()
	fmt.Println(readSeed(store))
}

func cmdDump(args []string) {
	store, rest := openStore("dump", args, 4, "dump <dir> <x y z>")
	defer store.Close()

	var coords [3]int
	for i := range coords {
		v, err := strconv.Atoi(rest[i])
		if err != nil {
			fail(fmt.Errorf("bad chunk coordinate %q", rest[i]))
		}
		coords[i] = v
	}
	cp := math.Vec3i{X: coords[0], Y: coords[1], Z: coords[2]}

	data, err := store.Get(save.ChunkKey(cp))
	if err != nil {
		fail(fmt.Errorf("chunk %v: %w", cp, err))
	}
	cd, err := formats.ParseChunk(data)
	if err != nil {
		fail(fmt.Errorf("chunk %v: %w", cp, err))
	}

	reg := block.Default()
	fmt.Printf("Chunk:   %v (%d bytes)\n", cp, len(data))
	fmt.Println()
	fmt.Println("Blocks:")

	type idStat struct {
		id    uint8
		count int
	}
	var stats []idStat
	for id, count := range cd.CountByID() {
		stats = append(stats, idStat{id, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].id < stats[j].id
	})
	for _, s := range stats {
		fmt.Printf("  %3d %-16s %d\n", s.id, reg.Get(block.ID(s.id)).Name, s.count)
	}

	fmt.Println()
	fmt.Printf("Water entries: %d\n", len(cd.Water))
	for _, w := range cd.Water {
		if w.Level > 0 {
			fmt.Printf("  (%2d, %2d, %2d) level %d\n", w.X, w.Y, w.Z, w.Level)
		}
	}
}

func cmdVerify(args []string) {
	store, _ := openStore("verify", args, 1, "verify <dir>")
	defer store.Close()

	keys, err := store.Keys("chunk_")
	if err != nil {
		fail(err)
	}

	bad := 0
	for _, key := range keys {
		if _, ok := save.ParseChunkKey(key); !ok {
			fmt.Printf("  %-28s bad name\n", key)
			bad++
			continue
		}
		data, err := store.Get(key)
		if err == nil {
			_, err = formats.ParseChunk(data)
		}
		if err != nil {
			fmt.Printf("  %-28s %v\n", key, err)
			bad++
		}
	}

	fmt.Printf("Checked %d chunks, %d corrupt\n", len(keys), bad)
	if bad > 0 {
		os.Exit(1)
	}
}
