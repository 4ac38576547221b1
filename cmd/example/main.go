package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mexoms/perpunify/drivers/binance"
	"github.com/mexoms/perpunify/drivers/bybit"
	"github.com/mexoms/perpunify/drivers/hyperliquid"
	"github.com/mexoms/perpunify/pkg/exchange"
	"github.com/mexoms/perpunify/pkg/types"
)

// example drives a handful of drivers through the same Driver interface,
// printing each venue's BTC perpetual ticker side by side. It exists to
// show how a caller wires a driver, not as a production entrypoint.
func main() {
	log.Println("starting unified ticker example")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	drivers := []exchange.Driver{
		bybit.New(bybit.Config{TestNet: true}),
		binance.New(binance.Config{TestNet: true}),
	}
	if hl, err := hyperliquid.New(hyperliquid.Config{TestNet: true}); err != nil {
		log.Printf("hyperliquid driver unavailable: %v", err)
	} else {
		drivers = append(drivers, hl)
	}

	for _, d := range drivers {
		if err := d.Initialize(ctx); err != nil {
			log.Printf("%s: initialize failed: %v", d.ID(), err)
			continue
		}
		defer d.Disconnect(ctx)
	}

	symbol := types.Symbol{Base: "BTC", Quote: "USDT", Settle: "USDT"}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, d := range drivers {
				t, err := d.FetchTicker(ctx, symbol)
				if err != nil {
					fmt.Printf("%-12s error: %v\n", d.ID(), err)
					continue
				}
				fmt.Printf("%-12s last=%s bid=%s ask=%s\n", d.ID(), t.Last, t.Bid, t.Ask)
			}
			fmt.Println()
		}
	}
}
