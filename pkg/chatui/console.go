package chatui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Krajiyah/ble-chat/pkg/models"
)

// Console is the headless display: it prints chat lines and status reports
// to out and sends each line read from its input.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) printf(format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) AppendIncomingMessage(text string) { c.printf("%s\n", text) }

func (c *Console) AppendOutgoingMessage(text string) { c.printf("> %s\n", text) }

func (c *Console) OnStateChanged(from models.LifecycleState, to models.LifecycleState) {
	c.printf("* %s -> %s\n", from, to)
}

func (c *Console) OnSubscribersChanged(count int) { c.printf("* subscribers: %d\n", count) }

func (c *Console) OnInternalError(err error) { c.printf("! %v\n", err) }

// ReadLoop sends every non-empty line from in until EOF or ctx ends.
func (c *Console) ReadLoop(ctx context.Context, in io.Reader, sender Sender) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-scanErr:
			return err
		case text := <-lines:
			if text == "" {
				continue
			}
			if err := sender.Send(text); err != nil {
				c.printf("! send failed: %v\n", err)
			}
		}
	}
}
