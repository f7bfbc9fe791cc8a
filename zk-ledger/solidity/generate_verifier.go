package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"

	"github.com/kysee/zkledger/zk-ledger/circuits"
	"github.com/kysee/zkledger/zk-ledger/config"
	"github.com/kysee/zkledger/zk-ledger/log"
)

// generate_verifier compiles the spend circuit at the configured depth and
// writes its PLONK verifier contract.
func main() {
	cfgPath := flag.String("config", "zkledger.json", "config file, created with defaults when missing")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		panic(err)
	}
	logger, err := log.New(cfg.LogLevel, os.Stdout)
	if err != nil {
		panic(err)
	}

	b, err := circuits.NewPlonkBackend(cfg.SpendDepth, log.Component(logger, "plonk"))
	if err != nil {
		logger.Fatal().Err(err).Msg("setup spend circuit")
	}

	var buf bytes.Buffer
	if err := b.ExportSolidity(&buf); err != nil {
		logger.Fatal().Err(err).Msg("export verifier")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.SolidityOut), 0755); err != nil {
		logger.Fatal().Err(err).Msg("create output directory")
	}
	if err := os.WriteFile(cfg.SolidityOut, buf.Bytes(), 0644); err != nil {
		logger.Fatal().Err(err).Msg("write verifier")
	}

	logger.Info().Str("path", cfg.SolidityOut).Int("depth", cfg.SpendDepth).Msg("solidity verifier generated")
}
