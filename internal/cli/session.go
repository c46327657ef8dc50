package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	pion "github.com/pion/webrtc/v4"

	"github.com/gofast/gofast/internal/config"
	"github.com/gofast/gofast/internal/logging"
	"github.com/gofast/gofast/internal/signaling"
	"github.com/gofast/gofast/internal/transfer"
	"github.com/gofast/gofast/internal/ui"
)

const (
	connectTimeout = 15 * time.Second
	openTimeout    = 30 * time.Second
	leaveTimeout   = 2 * time.Second
)

// ConnectionContext holds the signaling side of one run.
type ConnectionContext struct {
	Client  *signaling.Client
	Handler *signaling.Handler
	Config  *config.Config
}

func NewConnectionContext(ctx context.Context, cfg *config.Config) (*ConnectionContext, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client := signaling.NewClient(cfg.ServerURL)
	if err := client.Connect(dialCtx); err != nil {
		return nil, transfer.NewError("connect to server", err)
	}

	handler := signaling.NewHandler(client)
	go handler.Start()

	return &ConnectionContext{
		Client:  client,
		Handler: handler,
		Config:  cfg,
	}, nil
}

func (c *ConnectionContext) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}

func runSession(ctx context.Context, role transfer.Role, code string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spinner := ui.NewConnectionSpinner("Connecting to server...")
	spinner.Start()
	conn, err := NewConnectionContext(ctx, cfg)
	if err != nil {
		spinner.Error("Could not reach the signaling server")
		return err
	}
	defer conn.Close()
	spinner.Success("Connected to server")

	peer, err := transfer.NewPeer(role, transfer.PeerOptions{
		STUNServers:    cfg.GetSTUNServers(),
		LoggerFactory:  logging.PionFactory(slog.LevelError),
		MaxMessageSize: cfg.MaxFileSize,
	})
	if err != nil {
		return err
	}

	c := newChat(cfg)
	peer.OnMessage(func(msg pion.DataChannelMessage) {
		c.handleFrame(msg.IsString, msg.Data)
	})

	session := transfer.NewSession(role, peer, conn.Client)
	rooms := make(chan string, 1)
	session.OnRoom = func(code string) {
		select {
		case rooms <- code:
		default:
		}
	}
	session.OnStateChange = func(from, to transfer.State) {
		slog.Debug("session state", "from", from, "to", to)
	}
	peer.Bind(session)

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go session.Run(sessionCtx)
	go transfer.Forward(sessionCtx, conn.Handler, session)

	started := time.Now()
	session.Post(transfer.Event{Kind: transfer.EventStart, Code: code})

	if err := waitForRoom(ctx, session, role, rooms, cfg); err != nil {
		return err
	}

	dc, err := waitForPeer(ctx, session, peer, role)
	if err != nil {
		return err
	}
	c.attach(dc, session.Code())

	ui.PrintSuccessf("Connected to peer in room %s", session.Code())
	ui.PrintInfo(helpText)

	status := c.loop(ctx, os.Stdin, session.Done())

	// Tell the other side first so it does not wait for a timeout.
	_ = conn.Client.SendMessage(signaling.Leave())
	session.Post(transfer.Event{Kind: transfer.EventClose})
	select {
	case <-session.Done():
	case <-time.After(leaveTimeout):
	}

	if status == "" {
		status = sessionStatus(session.Err())
	}

	fmt.Fprintln(ui.Out)
	ui.RenderFileTable(c.fileItems())
	ui.RenderSessionSummary(c.summary(status, time.Since(started)))
	return nil
}

func waitForRoom(ctx context.Context, session *transfer.Session, role transfer.Role, rooms <-chan string, cfg *config.Config) error {
	message := "Creating room..."
	if role == transfer.RoleResponder {
		message = "Joining room..."
	}
	spinner := ui.NewWaitingSpinner(message)
	spinner.Start()

	select {
	case code := <-rooms:
		spinner.Stop()
		if role == transfer.RoleInitiator {
			fmt.Fprintln(ui.Out)
			ui.RenderRoomInfo(code, cfg.RoomLink(code))
			fmt.Fprintln(ui.Out)
		} else {
			ui.PrintSuccessf("Joined room %s", code)
		}
		return nil
	case <-session.Done():
		spinner.Error("Could not enter the room")
		return session.Err()
	case <-ctx.Done():
		spinner.Stop()
		return ctx.Err()
	}
}

// waitForPeer returns the open data channel.
func waitForPeer(ctx context.Context, session *transfer.Session, peer *transfer.Peer, role transfer.Role) (*pion.DataChannel, error) {
	message := "Connecting to peer..."
	if role == transfer.RoleInitiator {
		message = "Waiting for a peer to join..."
	}
	spinner := ui.NewWaitingSpinner(message)
	spinner.Start()

	select {
	case <-session.Connected():
	case <-session.Done():
		spinner.Error("Connection failed")
		return nil, session.Err()
	case <-ctx.Done():
		spinner.Stop()
		return nil, ctx.Err()
	}

	spinner.UpdateMessage("Opening data channel...")
	openCtx, cancel := context.WithTimeout(ctx, openTimeout)
	defer cancel()

	dc, err := peer.WaitOpen(openCtx, session.Done())
	if err != nil {
		spinner.Error("Data channel did not open")
		if errors.Is(err, transfer.ErrSessionClosed) && session.Err() != nil {
			return nil, session.Err()
		}
		return nil, err
	}
	spinner.Stop()
	return dc, nil
}

func sessionStatus(err error) string {
	switch {
	case err == nil:
		return "closed"
	case errors.Is(err, transfer.ErrPeerDisconnected):
		return "peer left"
	default:
		return "failed"
	}
}

var _ channel = (*pion.DataChannel)(nil)
