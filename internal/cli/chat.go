package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gofast/gofast/internal/config"
	"github.com/gofast/gofast/internal/files"
	"github.com/gofast/gofast/internal/transfer"
	"github.com/gofast/gofast/internal/ui"
	"github.com/gofast/gofast/internal/utils"
	"github.com/gofast/gofast/internal/webrtc"
)

const helpText = "Type a message and press Enter. /send <path> sends a file or zipped folder, /quit leaves, /help repeats this."

const progressInterval = 100 * time.Millisecond

// channel is the part of a data channel the chat loop uses.
type channel interface {
	webrtc.Conn
	BufferedAmount() uint64
}

type commandKind int

const (
	commandNone commandKind = iota
	commandText
	commandSend
	commandQuit
	commandHelp
	commandUnknown
)

type command struct {
	kind commandKind
	arg  string
}

// parseCommand reads one input line. Lines starting with "/" are commands;
// "//" escapes a literal slash.
func parseCommand(line string) command {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return command{kind: commandNone}
	}
	if strings.HasPrefix(trimmed, "//") {
		return command{kind: commandText, arg: trimmed[1:]}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return command{kind: commandText, arg: line}
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/send", "/s":
		return command{kind: commandSend, arg: arg}
	case "/quit", "/exit", "/q":
		return command{kind: commandQuit}
	case "/help", "/h", "/?":
		return command{kind: commandHelp}
	}
	return command{kind: commandUnknown, arg: name}
}

// chat is the interactive part of a connected session.
type chat struct {
	cfg      *config.Config
	receiver *webrtc.Receiver
	dc       channel
	code     string

	mu    sync.Mutex
	stats ui.SessionSummary
	files []ui.FileTableItem
}

func newChat(cfg *config.Config) *chat {
	return &chat{
		cfg:      cfg,
		receiver: webrtc.NewReceiver(cfg.MaxFileSize),
	}
}

func (c *chat) attach(dc channel, code string) {
	c.dc = dc
	c.code = code
}

// loop reads commands from in until the user quits, the input ends, the
// session closes or ctx is cancelled. It returns a status for the summary,
// or "" when the session ended on its own.
func (c *chat) loop(ctx context.Context, in io.Reader, done <-chan struct{}) string {
	lines := make(chan string)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return "interrupted"

		case <-done:
			ui.PrintWarning("The session ended")
			return ""

		case line, ok := <-lines:
			if !ok {
				return "closed"
			}

			cmd := parseCommand(line)
			switch cmd.kind {
			case commandNone:
			case commandText:
				if err := c.sendText(cmd.arg); err != nil {
					ui.PrintError(err.Error())
				}
			case commandSend:
				if cmd.arg == "" {
					ui.PrintWarning("usage: /send <path>")
					continue
				}
				if err := c.sendFile(cmd.arg, done); err != nil {
					ui.PrintError(err.Error())
				}
			case commandQuit:
				return "closed"
			case commandHelp:
				ui.PrintInfo(helpText)
			case commandUnknown:
				ui.PrintWarningf("unknown command %s, try /help", cmd.arg)
			}
		}
	}
}

func (c *chat) sendText(content string) error {
	if err := webrtc.SendText(c.dc, content); err != nil {
		return transfer.NewError("send message", err)
	}

	c.mu.Lock()
	c.stats.MessagesSent++
	c.stats.BytesSent += int64(len(content))
	c.mu.Unlock()

	fmt.Fprintln(ui.Out, ui.SelfLine(content))
	return nil
}

func (c *chat) sendFile(path string, done <-chan struct{}) error {
	info, data, err := files.Load(path, c.cfg.MaxFileSize)
	if err != nil {
		return err
	}

	progress := ui.NewSendProgress(info.Name, info.Size)
	progress.Start()

	err = webrtc.SendFile(c.dc, webrtc.NewFileMetadata(info.Name, info.Type, info.Size), data)
	if err == nil {
		err = c.drain(info.Size, progress, done)
	}
	progress.Finish(err)
	if err != nil {
		return transfer.NewFileError("send file", info.Name, err)
	}

	c.mu.Lock()
	c.stats.FilesSent++
	c.stats.BytesSent += info.Size
	c.files = append(c.files, ui.FileTableItem{
		Direction: ui.IconSend,
		Name:      info.Name,
		Size:      info.Size,
		Type:      info.Type,
		Path:      info.Path,
	})
	c.mu.Unlock()
	return nil
}

// drain reports progress until the channel's send buffer is empty.
func (c *chat) drain(size int64, progress *ui.TransferProgress, done <-chan struct{}) error {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		buffered := int64(min(c.dc.BufferedAmount(), uint64(size)))
		progress.Update(size - buffered)
		if buffered == 0 {
			return nil
		}

		select {
		case <-done:
			return transfer.ErrSessionClosed
		case <-ticker.C:
		}
	}
}

// handleFrame consumes one data channel message.
func (c *chat) handleFrame(isText bool, data []byte) {
	res, err := c.receiver.Receive(isText, data)
	if err != nil {
		ui.PrintWarningf("dropped message from peer: %v", err)
		return
	}

	switch {
	case res.Text != nil:
		c.mu.Lock()
		c.stats.MessagesRecv++
		c.stats.BytesReceived += int64(len(res.Text.Content))
		c.mu.Unlock()
		fmt.Fprintln(ui.Out, ui.PeerLine(res.Text.Content))

	case res.File != nil:
		if err := c.saveFile(res.File); err != nil {
			ui.PrintError(err.Error())
		}

	default:
		if meta, ok := c.receiver.Pending(); ok {
			ui.PrintInfo(fmt.Sprintf("%s Receiving %s (%s)...", ui.IconReceive, meta.FileName, utils.FormatSize(meta.FileSize)))
		}
	}
}

func (c *chat) saveFile(f *webrtc.File) error {
	path, err := utils.UniquePath(c.cfg.DownloadDir, f.Metadata.FileName)
	if err != nil {
		return transfer.NewFileError("save file", f.Metadata.FileName, err)
	}
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return transfer.NewFileError("save file", f.Metadata.FileName, err)
	}

	c.mu.Lock()
	c.stats.FilesRecv++
	c.stats.BytesReceived += int64(len(f.Data))
	c.files = append(c.files, ui.FileTableItem{
		Direction: ui.IconReceive,
		Name:      f.Metadata.FileName,
		Size:      int64(len(f.Data)),
		Type:      f.Metadata.FileType,
		Path:      path,
	})
	c.mu.Unlock()

	ui.PrintSuccessf("Received %s (%s) saved to %s", f.Metadata.FileName, utils.FormatSize(int64(len(f.Data))), path)
	return nil
}

func (c *chat) fileItems() []ui.FileTableItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ui.FileTableItem(nil), c.files...)
}

func (c *chat) summary(status string, d time.Duration) ui.SessionSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Status = status
	s.Code = c.code
	s.Duration = d
	return s
}
