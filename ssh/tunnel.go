// Package ssh forwards a local TCP port to the ERP replica database through
// a bastion host.
//
// Design decisions:
//   - One SSH client per tunnel; every local connection becomes one
//     direct-tcpip channel on it.
//   - The local side listens on 127.0.0.1 with a kernel-assigned port.
//   - Key (optionally encrypted) and password auth may be combined.
//   - Host keys are verified against known_hosts when a path is set.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/DachengChen/paiERP/applog"
	"github.com/DachengChen/paiERP/config"
)

// Tunnel is an open local port forward.
type Tunnel struct {
	bastion string
	target  string

	client *ssh.Client
	ln     net.Listener
	conns  sync.WaitGroup
	once   sync.Once
}

// Open connects to the bastion described by cfg and starts forwarding a
// local port to target (host:port as seen from the bastion).
func Open(ctx context.Context, cfg config.SSHConfig, target string) (*Tunnel, error) {
	clientCfg, err := clientConfig(cfg)
	if err != nil {
		return nil, err
	}

	t := &Tunnel{
		bastion: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		target:  target,
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", t.bastion)
	if err != nil {
		return nil, fmt.Errorf("ssh dial %s: %w", t.bastion, err)
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, t.bastion, clientCfg)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", t.bastion, err)
	}
	t.client = ssh.NewClient(c, chans, reqs)

	if t.ln, err = net.Listen("tcp", "127.0.0.1:0"); err != nil {
		t.client.Close()
		return nil, fmt.Errorf("local listen: %w", err)
	}

	applog.L().Info("ssh tunnel open",
		zap.String("bastion", t.bastion),
		zap.String("target", t.target),
		zap.String("local", t.ln.Addr().String()),
	)
	go t.serve()
	return t, nil
}

// LocalAddr returns the loopback host and port to connect to.
func (t *Tunnel) LocalAddr() (string, int) {
	addr := t.ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

// Close stops accepting, waits for open connections and closes the SSH
// client. It is safe to call more than once.
func (t *Tunnel) Close() error {
	var err error
	t.once.Do(func() {
		t.ln.Close()
		t.conns.Wait()
		err = t.client.Close()
	})
	return err
}

func (t *Tunnel) serve() {
	for {
		local, err := t.ln.Accept()
		if errors.Is(err, net.ErrClosed) {
			return
		}
		if err != nil {
			applog.L().Warn("ssh tunnel accept", zap.Error(err))
			continue
		}
		t.conns.Add(1)
		go t.pipe(local)
	}
}

// pipe copies both ways until either side finishes, then closes both.
func (t *Tunnel) pipe(local net.Conn) {
	defer t.conns.Done()

	remote, err := t.client.Dial("tcp", t.target)
	if err != nil {
		applog.L().Warn("ssh tunnel dial target", zap.String("target", t.target), zap.Error(err))
		local.Close()
		return
	}

	var once sync.Once
	closeBoth := func() {
		local.Close()
		remote.Close()
	}
	var copies sync.WaitGroup
	copies.Add(2)
	go func() {
		defer copies.Done()
		io.Copy(remote, local)
		once.Do(closeBoth)
	}()
	go func() {
		defer copies.Done()
		io.Copy(local, remote)
		once.Do(closeBoth)
	}()
	copies.Wait()
}

func clientConfig(cfg config.SSHConfig) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if cfg.KeyPath != "" {
		pem, err := os.ReadFile(cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read ssh key %s: %w", cfg.KeyPath, err)
		}
		var signer ssh.Signer
		if cfg.KeyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(pem, []byte(cfg.KeyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(pem)
		}
		if err != nil {
			return nil, fmt.Errorf("parse ssh key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("ssh tunnel needs ssh.keyPath or ssh.password in settings")
	}

	hostKeys := ssh.InsecureIgnoreHostKey()
	if cfg.KnownHostsPath != "" {
		cb, err := knownhosts.New(cfg.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known_hosts %s: %w", cfg.KnownHostsPath, err)
		}
		hostKeys = cb
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
	}, nil
}
