// comm_live serves capture runs over websockets: a client connects,
// names a scenario from the config, and receives one JSON message per
// Read call as the capture progresses.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/procwire/procwire/lib/logger"
	"github.com/procwire/procwire/proc"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

var configName = flag.String("c", "live", "name of the server config file")

// sampleMessage is the wire format for one Read call's result
type sampleMessage struct {
	Scenario string `json:"scenario"`
	Call     int    `json:"call"`
	Stdout   []byte `json:"stdout,omitempty"`
	Stderr   []byte `json:"stderr,omitempty"`
	TimedOut bool   `json:"timedOut"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

type liveServer struct {
	scenarios map[string]proc.Scenario
	upgrader  websocket.Upgrader
	token     string
}

func (s *liveServer) handleLive(w http.ResponseWriter, r *http.Request) {
	log := logger.Log().Named("live").With(zap.String("remote", r.RemoteAddr))

	if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sc, ok := s.scenarios[r.URL.Query().Get("scenario")]
	if !ok {
		http.Error(w, "unknown scenario", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("error upgrading connection", zap.Error(err))
		return
	}
	defer conn.Close()
	log.Info("client connected", zap.String("scenario", sc.Name))

	send := func(msg sampleMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error writing message", zap.Error(err))
			}
			return false
		}
		return true
	}

	var sent int
	result, err := proc.RunScenario(sc, nil)

	if result != nil {
		var outOff, errOff int
		for _, s := range result.Samples {
			msg := sampleMessage{
				Scenario: sc.Name,
				Call:     s.Call,
				TimedOut: s.TimedOut,
			}
			if s.OutBytes > 0 {
				msg.Stdout = result.Stdout[outOff : outOff+s.OutBytes]
				outOff += s.OutBytes
			}
			if s.ErrBytes > 0 {
				msg.Stderr = result.Stderr[errOff : errOff+s.ErrBytes]
				errOff += s.ErrBytes
			}
			if !send(msg) {
				return
			}
			sent++
		}
	}

	final := sampleMessage{Scenario: sc.Name, Call: sent, Done: true}
	if err != nil {
		final.Error = err.Error()
	} else if result.ExitErr != nil {
		final.Error = result.ExitErr.Error()
	}
	send(final)
	log.Info("capture streamed", zap.Int("messages", sent))
}

func main() {
	flag.Parse()
	logger.InitLogger()

	if err := godotenv.Load(); err != nil {
		logger.Warn("error reading .env file", zap.Error(err))
		// Program can continue if env variable was set elsewhere
	}

	cfg := viper.New()
	cfg.SetConfigName(*configName)
	cfg.SetConfigType("yaml")
	cfg.AddConfigPath("data/config/")
	cfg.SetDefault("listen_addr", "localhost:8090")
	cfg.SetDefault("scenario_config", "data/config/bench.yaml")
	if err := cfg.ReadInConfig(); err != nil {
		logger.Fatal("error reading live config", zap.Error(err))
	}

	scenarioCfg, err := proc.ParseConfig(cfg.GetString("scenario_config"))
	if err != nil {
		logger.Fatal("error parsing scenario config", zap.Error(err))
	}

	server := &liveServer{
		scenarios: make(map[string]proc.Scenario),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		token: os.Getenv("COMM_LIVE_TOKEN"),
	}
	for _, sc := range scenarioCfg.Scenarios {
		server.scenarios[sc.Name] = sc
	}

	addr := cfg.GetString("listen_addr")
	http.HandleFunc("/live", server.handleLive)
	logger.Info("starting capture streaming", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
