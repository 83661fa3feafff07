// Command thermostat-monitor talks to a thermostat over its serial link. It
// prints report lines in physical units and forwards stdin lines as
// commands.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"thermostat/channels"
	"thermostat/config"
	"thermostat/host/mcu"
	"thermostat/host/serial"
	"thermostat/units"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Serial device path (overrides the config)")
	list       = flag.Bool("list", false, "List serial ports and exit")
	raw        = flag.Bool("raw", false, "Print received lines unformatted")
	stream     = flag.Bool("stream", true, "Send \"report mode on\" after connecting")
)

func main() {
	flag.Parse()

	if *list {
		ports, err := serial.Ports()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := cfg.Logger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	sc := serial.DefaultConfig(cfg.Serial.Device)
	sc.Baud = cfg.Serial.Baud
	sc.ReadTimeout = cfg.Serial.ReadTimeout
	if *device != "" {
		sc.Device = *device
	}

	conn := mcu.NewMCU(logger.Named("mcu"))
	if err := conn.Connect(sc); err != nil {
		logger.Fatal("Failed to connect", zap.String("device", sc.Device), zap.Error(err))
	}
	defer conn.Close()

	if *stream {
		if err := conn.SendCommand("report mode on"); err != nil {
			logger.Fatal("Failed to enable reports", zap.Error(err))
		}
	}

	go forwardCommands(conn, os.Stdin, logger)

	for {
		msg, err := conn.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) || !conn.IsConnected() {
				return
			}
			logger.Fatal("Receive failed", zap.Error(err))
		}
		if *raw || len(msg.Reports) == 0 {
			fmt.Println(string(msg.Raw))
			continue
		}
		for _, r := range msg.Reports {
			fmt.Println(formatReport(r))
		}
	}
}

// forwardCommands sends every non-empty stdin line. "quit" closes the link.
func forwardCommands(conn *mcu.MCU, in io.Reader, logger *zap.Logger) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit", "q":
			conn.Close()
			return
		}
		if err := conn.SendCommand(line); err != nil {
			logger.Warn("Command not sent", zap.String("command", line), zap.Error(err))
		}
	}
}

// formatReport renders one report in physical units. Missing sensor values
// print as "-".
func formatReport(r channels.Report) string {
	temp := "-"
	if r.Temperature != nil {
		temp = units.Celsius(*r.Temperature).Kelvin().Physic().String()
	}
	sens := "-"
	if r.Sens != nil {
		sens = units.Ohms(*r.Sens).Physic().String()
	}
	mode := "manual"
	if r.PIDEngaged {
		mode = "pid"
	}
	return fmt.Sprintf("ch%d t=%dms %-6s T=%s R=%s Iset=%s I=%s U=%s",
		r.Channel, r.Time, mode, temp, sens,
		units.Amps(r.ISet).Physic(),
		units.Amps(r.TecI).Physic(),
		units.Volts(r.TecUMeas).Physic())
}
