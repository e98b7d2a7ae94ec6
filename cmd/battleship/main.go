package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"sea-battle/internal/app"
	"sea-battle/internal/codec"
	"sea-battle/internal/game"
	"sea-battle/internal/merkle"
	"sea-battle/internal/server"
	"sea-battle/internal/tui"
	"sea-battle/internal/zk"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	var err error
	switch os.Args[1] {
	case "play":
		err = cmdPlay(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "deal":
		err = cmdDeal(os.Args[2:])
	case "verify":
		err = cmdVerify(os.Args[2:])
	default:
		usage()
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Sea Battle CLI

Commands:
  play   [-size 10 -max-ship 4 -seed N -blink 200ms -log play.log]
  serve  [-addr :8080 -keys ./keys -debug]
  deal   [-size 10 -max-ship 4 -seed N -out secret.json]
  verify -vk ./keys -root ROOT_HEX -proof proof.json [-index N]
  verify -reveal reveal.json`)
}

// configFlags binds the match settings shared by play, serve and deal.
func configFlags(fs *flag.FlagSet) *app.Config {
	cfg := app.DefaultConfig()
	fs.IntVar(&cfg.Size, "size", cfg.Size, "board side length")
	fs.IntVar(&cfg.MaxShipLength, "max-ship", cfg.MaxShipLength, "longest ship; the fleet is 1 of it, 2 of one shorter, ...")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed (0 picks one)")
	fs.IntVar(&cfg.PlacementAttempts, "attempts", cfg.PlacementAttempts, "fleet placement tries before giving up")
	fs.DurationVar(&cfg.BlinkDelay, "blink", cfg.BlinkDelay, "delay between blink frames")
	return &cfg
}

func consoleLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()
}

func cmdPlay(args []string) error {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	cfg := configFlags(fs)
	logPath := fs.String("log", "", "write a debug log here (the terminal is busy)")
	_ = fs.Parse(args)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := zerolog.Nop()
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		log = zerolog.New(f).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ui, err := tui.New(screen, *cfg, log)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return ui.Run(ctx)
}

func cmdServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := configFlags(fs)
	addr := fs.String("addr", ":8080", "listen address")
	keys := fs.String("keys", "./keys", "proving keys directory (empty disables strike proofs)")
	debug := fs.Bool("debug", false, "log every request and strike")
	_ = fs.Parse(args)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := consoleLogger(*debug)

	var prover *zk.Prover
	if *keys != "" {
		if cfg.Size != 10 {
			log.Warn().Int("size", cfg.Size).Msg("strike proofs only cover 10x10 boards")
		}
		start := time.Now()
		p, err := zk.LoadProver(*keys)
		if err != nil {
			return fmt.Errorf("load keys: %w", err)
		}
		prover = p
		log.Info().Str("keys", *keys).Dur("took", time.Since(start)).Msg("strike proofs enabled")
	}

	srv := server.New(*cfg, prover, log)
	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", *addr).Msg("serving")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func cmdDeal(args []string) error {
	fs := flag.NewFlagSet("deal", flag.ExitOnError)
	cfg := configFlags(fs)
	out := fs.String("out", "", "also write the board and salt here")
	_ = fs.Parse(args)

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	b, c, err := app.Deal(*cfg, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	view := codec.ViewOf(b)
	for i, s := range view.Cells {
		ch := "."
		if s == game.Ship {
			ch = "#"
		}
		fmt.Print(ch)
		if (i+1)%view.Size == 0 {
			fmt.Println()
		} else {
			fmt.Print(" ")
		}
	}
	fmt.Println("ROOT:", c.RootHex())

	if *out != "" {
		sec := codec.Secret{Board: view, SaltHex: merkle.Hex(c.Salt), RootHex: c.RootHex()}
		if err := saveJSON(*out, &sec); err != nil {
			return err
		}
		fmt.Println("✓ wrote", *out)
	}
	return nil
}

func cmdVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	vkPath := fs.String("vk", "./keys", "verifying key file or keys directory")
	rootHex := fs.String("root", "", "committed root, 0x-prefixed")
	proofPath := fs.String("proof", "proof.json", "proof payload json")
	index := fs.Int("index", -1, "expected cell index (optional)")
	revealPath := fs.String("reveal", "", "check a revealed board against its root instead")
	_ = fs.Parse(args)

	if *revealPath != "" {
		var rev codec.Reveal
		if err := loadJSON(*revealPath, &rev); err != nil {
			return err
		}
		if err := merkle.VerifyReveal(rev.RootHex, rev.Bits, rev.SaltHex); err != nil {
			return err
		}
		fmt.Println("✓ revealed board matches", rev.RootHex)
		return nil
	}

	if strings.TrimSpace(*rootHex) == "" {
		return errors.New("-root required")
	}
	var payload codec.ShotProofPayload
	if err := loadJSON(*proofPath, &payload); err != nil {
		return err
	}
	if *index >= 0 && payload.Public.Index != *index {
		return fmt.Errorf("proof is for cell %d but expected %d", payload.Public.Index, *index)
	}
	vk, err := zk.ReadVerifyingKey(*vkPath)
	if err != nil {
		return err
	}
	res, err := app.VerifyWithRoot(vk, *rootHex, payload)
	if err != nil {
		return err
	}
	if !res.Valid {
		return errors.New("invalid proof")
	}
	fmt.Printf("cell %d: %s\n", res.Index, map[uint8]string{0: "MISS", 1: "HIT"}[res.Hit])
	return nil
}

func saveJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func loadJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}
