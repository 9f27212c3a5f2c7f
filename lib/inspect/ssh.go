// Copyright 2026 The OpenStack-tools Authors
// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/yeungp/OpenStack-tools/lib/reconcile"
)

// DefaultCommand lists network namespaces on the remote host.
const DefaultCommand = "ip netns"

// SSHConfig configures an SSHInspector.
type SSHConfig struct {
	// User defaults to $USER.
	User string

	// Port defaults to 22. Hosts given as "host:port" override it.
	Port int

	// KeyFiles are unencrypted private keys to offer.
	KeyFiles []string

	// UseAgent offers the keys of the ssh-agent at $SSH_AUTH_SOCK.
	UseAgent bool

	// KnownHostsFile defaults to ~/.ssh/known_hosts when
	// StrictHostKeyChecking is set.
	KnownHostsFile string

	StrictHostKeyChecking bool

	// NamespacePrefix defaults to DefaultNamespacePrefix.
	NamespacePrefix string

	// Command defaults to DefaultCommand.
	Command string

	Logger *slog.Logger
}

// SSHInspector implements reconcile.Inspector over SSH.
type SSHInspector struct {
	clientConfig *ssh.ClientConfig
	port         string
	command      string
	prefix       string
	agentConn    net.Conn
	logger       *slog.Logger
}

// NewSSHInspector loads keys and known hosts and returns an inspector.
// Call Close to release the ssh-agent connection.
func NewSSHInspector(cfg SSHConfig) (*SSHInspector, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	user := cfg.User
	if user == "" {
		user = os.Getenv("USER")
	}
	if user == "" {
		return nil, errors.New("inspect: no SSH user configured and $USER is unset")
	}
	port := cfg.Port
	if port == 0 {
		port = 22
	}

	inspector := &SSHInspector{
		port:    strconv.Itoa(port),
		command: cfg.Command,
		prefix:  cfg.NamespacePrefix,
		logger:  logger,
	}
	if inspector.command == "" {
		inspector.command = DefaultCommand
	}
	if inspector.prefix == "" {
		inspector.prefix = DefaultNamespacePrefix
	}

	var methods []ssh.AuthMethod
	var signers []ssh.Signer
	for _, path := range cfg.KeyFiles {
		signer, err := loadSigner(path)
		if err != nil {
			return nil, err
		}
		signers = append(signers, signer)
	}
	if len(signers) > 0 {
		methods = append(methods, ssh.PublicKeys(signers...))
	}
	if cfg.UseAgent {
		socket := os.Getenv("SSH_AUTH_SOCK")
		if socket == "" {
			return nil, errors.New("inspect: use_agent is set but $SSH_AUTH_SOCK is empty")
		}
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return nil, fmt.Errorf("inspect: connecting to ssh-agent: %w", err)
		}
		inspector.agentConn = conn
		methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
	}
	if len(methods) == 0 {
		inspector.Close()
		return nil, errors.New("inspect: no SSH authentication configured (set key files or use_agent)")
	}

	hostKeyCallback, err := hostKeyCallback(cfg)
	if err != nil {
		inspector.Close()
		return nil, err
	}

	inspector.clientConfig = &ssh.ClientConfig{
		User:            user,
		Auth:            methods,
		HostKeyCallback: hostKeyCallback,
	}
	return inspector, nil
}

func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: reading key %s: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("inspect: parsing key %s: %w", path, err)
	}
	return signer, nil
}

func hostKeyCallback(cfg SSHConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKeyChecking {
		return ssh.InsecureIgnoreHostKey(), nil
	}
	path := cfg.KnownHostsFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("inspect: locating known_hosts: %w", err)
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("inspect: loading known hosts %s: %w", path, err)
	}
	return callback, nil
}

// Close releases the ssh-agent connection, if any.
func (i *SSHInspector) Close() error {
	if i.agentConn == nil {
		return nil
	}
	err := i.agentConn.Close()
	i.agentConn = nil
	return err
}

// ListLiveResourceKeys runs the namespace listing on host and parses
// its output.
func (i *SSHInspector) ListLiveResourceKeys(ctx context.Context, host string) ([]reconcile.ResourceKey, error) {
	output, err := i.run(ctx, host)
	if err != nil {
		return nil, err
	}
	keys := ParseNamespaces(output, i.prefix)
	i.logger.Debug("listed namespaces",
		"host", host,
		"namespaces", len(keys),
	)
	return keys, nil
}

func (i *SSHInspector) address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	return net.JoinHostPort(host, i.port)
}

func (i *SSHInspector) run(ctx context.Context, host string) ([]byte, error) {
	address := i.address(host)

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", address, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	clientConn, channels, requests, err := ssh.NewClientConn(conn, address, i.clientConfig)
	if err != nil {
		conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("ssh handshake with %s: %w", address, ctxErr)
		}
		return nil, fmt.Errorf("ssh handshake with %s: %w", address, err)
	}
	client := ssh.NewClient(clientConn, channels, requests)
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { client.Close() })
	defer stop()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session on %s: %w", address, err)
	}
	defer session.Close()

	output, err := session.Output(i.command)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %q on %s: %w", i.command, address, ctxErr)
		}
		return nil, fmt.Errorf("running %q on %s: %w", i.command, address, err)
	}
	return output, nil
}
