package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"islebuild.ai/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		building = flag.String("building", "ROAD", "building type to preview")
		from     = flag.String("from", "", "gesture start x,y (default: centre of the first island)")
		to       = flag.String("to", "", "gesture end x,y (default: start + 4,3)")
		build    = flag.Bool("build", false, "send BUILD after the preview")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}
	var welcome protocol.WelcomeMsg
	if err := readInto(conn, protocol.TypeWelcome, &welcome); err != nil {
		logger.Fatalf("WELCOME: %v", err)
	}
	logger.Printf("WELCOME session=%s world=%s seed=%d islands=%d buildings=%d",
		welcome.SessionID, welcome.WorldID, welcome.Seed, len(welcome.Islands), len(welcome.Buildings))

	p1, p2, err := gesture(welcome, *from, *to)
	if err != nil {
		logger.Fatalf("gesture: %v", err)
	}

	preview := protocol.PreviewMsg{
		Type:            protocol.TypePreview,
		ProtocolVersion: protocol.Version,
		ReqID:           "P1",
		Building:        *building,
		P1:              p1,
		P2:              p2,
	}
	if err := conn.WriteJSON(preview); err != nil {
		logger.Fatalf("send PREVIEW: %v", err)
	}
	var list protocol.BuildListMsg
	if err := readInto(conn, protocol.TypeBuildList, &list); err != nil {
		logger.Fatalf("BUILD_LIST: %v", err)
	}
	logger.Printf("BUILD_LIST %s %v -> %v: %d results", list.Building, p1, p2, len(list.Results))
	for _, r := range list.Results {
		fmt.Println(formatPlacement(r))
	}
	if !*build {
		return
	}

	req := protocol.BuildMsg(preview)
	req.Type = protocol.TypeBuild
	req.ReqID = "B1"
	if err := conn.WriteJSON(req); err != nil {
		logger.Fatalf("send BUILD: %v", err)
	}
	var res protocol.BuildResultMsg
	if err := readInto(conn, protocol.TypeBuildResult, &res); err != nil {
		logger.Fatalf("BUILD_RESULT: %v", err)
	}
	logger.Printf("BUILD_RESULT placed=%d torn=%d skipped=%d", len(res.Placed), len(res.Torn), len(res.Skipped))
}

// readInto reads one message; an ERROR reply is returned as an error.
func readInto(conn *websocket.Conn, want string, v any) error {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return err
	}
	switch base.Type {
	case want:
		return json.Unmarshal(msg, v)
	case protocol.TypeError:
		var e protocol.ErrorMsg
		if err := json.Unmarshal(msg, &e); err != nil {
			return err
		}
		return fmt.Errorf("%s: %s", e.Code, e.Message)
	default:
		return fmt.Errorf("unexpected message %s", base.Type)
	}
}

func gesture(welcome protocol.WelcomeMsg, from, to string) (p1, p2 [2]float64, err error) {
	if strings.TrimSpace(from) != "" {
		if p1, err = parsePoint(from); err != nil {
			return p1, p2, err
		}
	} else if len(welcome.Islands) > 0 {
		b := welcome.Islands[0].Bounds
		p1 = [2]float64{float64(b[0]+b[2]) / 2, float64(b[1]+b[3]) / 2}
	}
	if strings.TrimSpace(to) != "" {
		p2, err = parsePoint(to)
		return p1, p2, err
	}
	return p1, [2]float64{p1[0] + 4, p1[1] + 3}, nil
}

func parsePoint(s string) ([2]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]float64{}, fmt.Errorf("point %q: want x,y", s)
	}
	var p [2]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("point %q: %w", s, err)
		}
		p[i] = v
	}
	return p, nil
}

func formatPlacement(r protocol.Placement) string {
	status := "ok"
	if !r.Buildable {
		status = "blocked"
	}
	var extra []string
	if r.Action != "" {
		extra = append(extra, "action="+r.Action)
	}
	if r.Building != "" {
		extra = append(extra, "building="+r.Building)
	}
	if len(r.Tear) > 0 {
		extra = append(extra, "tear="+strings.Join(r.Tear, ","))
	}
	if r.Settlement != "" {
		extra = append(extra, "settlement="+r.Settlement)
	}
	line := fmt.Sprintf("%4d,%-4d %-7s rot=%d", r.Anchor[0], r.Anchor[1], status, r.Rotation)
	if len(extra) > 0 {
		line += " " + strings.Join(extra, " ")
	}
	return line
}
