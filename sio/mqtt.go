/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package sio

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/Comcast/ocremote/channel"
	"github.com/Comcast/ocremote/util"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MQTTOptions are the usual knobs for an MQTT session.  The flag
// names follow mosquitto_sub.
type MQTTOptions struct {
	Broker    string        `yaml:"broker,omitempty"`
	Port      int           `yaml:"port,omitempty"`
	ClientID  string        `yaml:"clientId,omitempty"`
	KeepAlive time.Duration `yaml:"keepAlive,omitempty"`
	Username  string        `yaml:"username,omitempty"`
	Password  string        `yaml:"password,omitempty"`
	Reconnect bool          `yaml:"reconnect,omitempty"`
	Clean     bool          `yaml:"clean,omitempty"`

	WillTopic   string `yaml:"willTopic,omitempty"`
	WillPayload string `yaml:"willPayload,omitempty"`
	WillQoS     int    `yaml:"willQoS,omitempty"`
	WillRetain  bool   `yaml:"willRetain,omitempty"`

	CertFile string `yaml:"certFile,omitempty"`
	KeyFile  string `yaml:"keyFile,omitempty"`
	CAFile   string `yaml:"caFile,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`

	// Prefix is the topic prefix.  Requests go to <Prefix>/request
	// and responses come back on <Prefix>/response.
	Prefix string `yaml:"prefix,omitempty"`
	QoS    int    `yaml:"qos,omitempty"`

	// Quiesce is how long Disconnect waits for work to finish.
	Quiesce time.Duration `yaml:"quiesce,omitempty"`
}

// DefaultMQTTOptions match the flag defaults.
func DefaultMQTTOptions() *MQTTOptions {
	return &MQTTOptions{
		Broker:    "tcp://localhost",
		Port:      1883,
		KeepAlive: 10 * time.Second,
		Clean:     true,
		Prefix:    "oc",
		QoS:       1,
		Quiesce:   100 * time.Millisecond,
	}
}

// Flags adds flags for the options to fs.
func (o *MQTTOptions) Flags(fs *flag.FlagSet) {
	fs.StringVar(&o.Broker, "h", "tcp://localhost", "Broker hostname")
	fs.IntVar(&o.Port, "p", 1883, "Broker port")
	fs.StringVar(&o.ClientID, "i", "", "Client id")
	fs.DurationVar(&o.KeepAlive, "k", 10*time.Second, "Keep-alive")
	fs.StringVar(&o.Username, "u", "", "Username")
	fs.StringVar(&o.Password, "P", "", "Password")
	fs.BoolVar(&o.Reconnect, "reconnect", false, "Automatically attempt to reconnect")
	fs.BoolVar(&o.Clean, "c", true, "Clean session")
	fs.StringVar(&o.WillTopic, "will-topic", "", "Optional will topic")
	fs.StringVar(&o.WillPayload, "will-payload", "", "Optional will message")
	fs.IntVar(&o.WillQoS, "will-qos", 0, "Optional will QoS")
	fs.BoolVar(&o.WillRetain, "will-retain", false, "Optional will retention")
	fs.StringVar(&o.CertFile, "cert", "", "Optional cert filename")
	fs.StringVar(&o.KeyFile, "key", "", "Optional key filename")
	fs.StringVar(&o.CAFile, "cafile", "", "Optional CA cert filename")
	fs.BoolVar(&o.Insecure, "insecure", false, "Skip broker cert checking")
	fs.StringVar(&o.Prefix, "prefix", "oc", "Topic prefix")
	fs.IntVar(&o.QoS, "q", 1, "QoS for requests and responses")
	fs.DurationVar(&o.Quiesce, "quiesce", 100*time.Millisecond, "Disconnection quiescence")
}

// ClientOptions makes paho options.
func (o *MQTTOptions) ClientOptions() (*mqtt.ClientOptions, error) {
	opts := mqtt.NewClientOptions()

	broker := o.Broker
	if o.Port != 0 {
		broker = fmt.Sprintf("%s:%d", broker, o.Port)
	}
	opts.AddBroker(broker)
	opts.SetClientID(o.ClientID)
	opts.SetKeepAlive(o.KeepAlive)
	opts.SetUsername(o.Username)
	opts.SetPassword(o.Password)
	opts.SetAutoReconnect(o.Reconnect)
	opts.SetCleanSession(o.Clean)

	if o.WillTopic != "" {
		if o.WillPayload == "" {
			return nil, errors.New("will topic without payload")
		}
		opts.SetWill(o.WillTopic, o.WillPayload, byte(o.WillQoS), o.WillRetain)
	}

	tlsConf := &tls.Config{
		InsecureSkipVerify: o.Insecure,
	}

	if o.CAFile != "" {
		rootCAs, _ := x509.SystemCertPool()
		if rootCAs == nil {
			rootCAs = x509.NewCertPool()
		}
		certs, err := ioutil.ReadFile(o.CAFile)
		if err != nil {
			return nil, err
		}
		if !rootCAs.AppendCertsFromPEM(certs) {
			return nil, fmt.Errorf("no certs in %s", o.CAFile)
		}
		tlsConf.RootCAs = rootCAs
	}

	if o.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
		if err != nil {
			return nil, err
		}
		tlsConf.Certificates = []tls.Certificate{cert}
	}

	opts.SetTLSConfig(tlsConf)

	return opts, nil
}

// Connect makes a client and connects it.
func (o *MQTTOptions) Connect(ctx context.Context) (mqtt.Client, error) {
	opts, err := o.ClientOptions()
	if err != nil {
		return nil, err
	}
	log := util.Logger()
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warn("mqtt connection lost", zap.Error(err))
	})
	client := mqtt.NewClient(opts)
	if err = wait(ctx, client.Connect()); err != nil {
		return nil, err
	}
	return client, nil
}

// wait waits for a paho token or the context.
func wait(ctx context.Context, t mqtt.Token) error {
	for !t.WaitTimeout(100 * time.Millisecond) {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return t.Error()
}

// MQTTLink is a channel.Link that talks to a machine through an MQTT
// broker.
type MQTTLink struct {
	*inbox

	client  mqtt.Client
	qos     byte
	out     string
	in      string
	quiesce time.Duration
	owned   bool
}

// NewMQTTLink subscribes to <prefix>/response on a connected client.
// Closing the link unsubscribes but leaves the client connected.
func NewMQTTLink(ctx context.Context, client mqtt.Client, prefix string, qos byte) (*MQTTLink, error) {
	l := &MQTTLink{
		inbox:  newInbox("mqtt"),
		client: client,
		qos:    qos,
		out:    prefix + "/request",
		in:     prefix + "/response",
	}
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		l.deliver(msg.Payload())
	}
	if err := wait(ctx, client.Subscribe(l.in, qos, handler)); err != nil {
		return nil, err
	}
	return l, nil
}

// DialMQTT connects with the given options and makes a link that
// disconnects when closed.
func DialMQTT(ctx context.Context, o *MQTTOptions) (*MQTTLink, error) {
	client, err := o.Connect(ctx)
	if err != nil {
		return nil, err
	}
	l, err := NewMQTTLink(ctx, client, o.Prefix, byte(o.QoS))
	if err != nil {
		client.Disconnect(uint(o.Quiesce / time.Millisecond))
		return nil, err
	}
	l.owned = true
	l.quiesce = o.Quiesce
	return l, nil
}

func (l *MQTTLink) Send(ctx context.Context, r *channel.Request) error {
	if l.closed() {
		return channel.ErrClosed
	}
	if !l.client.IsConnected() {
		return ErrNotConnected
	}
	js, err := channel.MarshalRequest(r)
	if err != nil {
		return err
	}
	return wait(ctx, l.client.Publish(l.out, l.qos, false, js))
}

func (l *MQTTLink) Close() error {
	if !l.shut() {
		return nil
	}
	t := l.client.Unsubscribe(l.in)
	t.WaitTimeout(time.Second)
	if l.owned {
		l.client.Disconnect(uint(l.quiesce / time.Millisecond))
	}
	return t.Error()
}
