// Watch - subscribe to a homehub event stream and print it
//
// Debug tool for checking what the daemon is broadcasting without
// opening the dashboard.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/shs-system/go-homehub/pkg/protocol"
)

func main() {
	url := flag.String("url", "ws://localhost:5000/ws/events", "Event stream URL")
	flag.Parse()

	fmt.Printf("👀 Watching %s\n\n", *url)

	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		fmt.Printf("❌ Connect failed: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.Close()
		os.Exit(0)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			fmt.Printf("❌ Read error: %v\n", err)
			os.Exit(1)
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			fmt.Printf("⚠️  Unparseable: %s\n", data)
			continue
		}

		printEvent(msg)
	}
}

func printEvent(msg *protocol.Message) {
	switch {
	case msg.IsAlert():
		alert, err := msg.GetAlertData()
		if err != nil {
			return
		}
		fmt.Printf("🚨 [%s] %s\n", msg.Type, alert.Message)

	case msg.Type == protocol.TypeProcessedFrame:
		pf, err := msg.GetProcessedFrame()
		if err != nil {
			return
		}
		fmt.Printf("🎯 processed frame: %d detections\n", len(pf.Detections))

	case msg.Type == protocol.TypeStatus:
		var status protocol.StatusData
		if err := msg.ParseData(&status); err != nil {
			return
		}
		fmt.Printf("🔌 %s: %s\n", msg.Type, status.Status)

	default:
		fmt.Printf("📊 [%s] %s\n", msg.Type, msg.Data)
	}
}
