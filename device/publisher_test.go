package device

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeToken is a completed or never completing token
type fakeToken struct {
	done chan struct{}
	err  error
}

func doneToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(time.Duration) bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

// fakeClient records publishes, unimplemented methods panic through the
// embedded nil interface
type fakeClient struct {
	mqtt.Client
	connected    bool
	connects     int
	connectErr   error
	publishToken *fakeToken
	published    []published
	disconnected bool
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Connect() mqtt.Token {
	c.connects++

	if c.connectErr == nil {
		c.connected = true
	}

	return doneToken(c.connectErr)
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) mqtt.Token {
	c.published = append(c.published, published{topic, qos, retained, payload.([]byte)})

	if c.publishToken != nil {
		return c.publishToken
	}

	return doneToken(nil)
}

func (c *fakeClient) Disconnect(uint) {
	c.connected = false
	c.disconnected = true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPublisher(t *testing.T, client *fakeClient) *Publisher {
	t.Helper()

	p, err := newPublisher(Config{Topic: "tray/pea/signal", QoS: 1}, client, testLogger())
	require.NoError(t, err)

	return p
}

func TestSignalPayload(t *testing.T) {

	data, err := Signal{1, 0, 0, 1, 0, 1}.Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"signal":[1,0,0,1,0,1]}`, string(data))

	data, err = Signal(nil).Payload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"signal":[]}`, string(data))
}

func TestSend(t *testing.T) {

	client := &fakeClient{}
	p := newTestPublisher(t, client)

	require.NoError(t, p.Send(context.Background(), Signal{0, 1, 0, 0, 0, 0}))
	require.NoError(t, p.Send(context.Background(), Signal{1, 1, 0, 0, 0, 0}))

	assert.Equal(t, 1, client.connects)
	require.Len(t, client.published, 2)
	assert.Equal(t, "tray/pea/signal", client.published[0].topic)
	assert.Equal(t, byte(1), client.published[0].qos)
	assert.JSONEq(t, `{"signal":[0,1,0,0,0,0]}`, string(client.published[0].payload))

	p.Close()
	assert.True(t, client.disconnected)
}

func TestSendConnectError(t *testing.T) {

	client := &fakeClient{connectErr: errors.New("not authorized")}
	p := newTestPublisher(t, client)

	err := p.Send(context.Background(), Signal{0, 0, 0, 0, 0, 0})
	assert.ErrorContains(t, err, "not authorized")
	assert.Empty(t, client.published)
}

func TestSendPublishError(t *testing.T) {

	client := &fakeClient{connected: true, publishToken: doneToken(errors.New("broker gone"))}
	p := newTestPublisher(t, client)

	err := p.Send(context.Background(), Signal{0, 0, 0, 0, 0, 0})
	assert.ErrorContains(t, err, "broker gone")
}

func TestSendContextDone(t *testing.T) {

	client := &fakeClient{connected: true, publishToken: pendingToken()}
	p := newTestPublisher(t, client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Send(ctx, Signal{0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewPublisherConfig(t *testing.T) {

	_, err := NewPublisher(Config{Topic: "t"}, nil)
	assert.Error(t, err)

	_, err = newPublisher(Config{}, &fakeClient{}, nil)
	assert.Error(t, err)

	p, err := NewPublisher(Config{Broker: "tcp://localhost:1883", Topic: "t"}, nil)
	require.NoError(t, err)
	assert.False(t, p.client.IsConnected())
}
