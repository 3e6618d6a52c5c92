package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SFTPConfig holds the connection settings of an SFTPStore
type SFTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// KeyFile is a private key used in place of the password
	KeyFile string
	// KnownHosts is a known_hosts file to verify the server key against.  The
	// host key is not checked when empty
	KnownHosts string
	// BasePath is the remote directory blobs are kept under
	BasePath string
	Timeout  time.Duration
}

// sftpDialer opens a session, the returned func closes it
type sftpDialer func(ctx context.Context) (*sftp.Client, func(), error)

// SFTPStore keeps blobs on a remote host over SFTP.  A new session is opened
// per operation as the job runs once a day
type SFTPStore struct {
	basePath string
	dial     sftpDialer
}

// NewSFTPStore returns a store for the configured host.  No connection is
// made until the first Get or Put
func NewSFTPStore(cfg SFTPConfig) (*SFTPStore, error) {

	if cfg.Host == "" {
		return nil, fmt.Errorf("sftp: host is required")
	}

	if cfg.Port == 0 {
		cfg.Port = 22
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	sshCfg, err := cfg.clientConfig()

	if err != nil {
		return nil, err
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	return newSFTPStore(cfg.BasePath, func(ctx context.Context) (*sftp.Client, func(), error) {
		return dialSFTP(ctx, addr, sshCfg)
	}), nil
}

func newSFTPStore(basePath string, dial sftpDialer) *SFTPStore {
	return &SFTPStore{
		basePath: strings.TrimRight(basePath, "/"),
		dial:     dial,
	}
}

// clientConfig builds the ssh client configuration
func (c SFTPConfig) clientConfig() (*ssh.ClientConfig, error) {

	cfg := &ssh.ClientConfig{
		User:            c.User,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.Timeout,
	}

	if c.KnownHosts != "" {
		cb, err := knownhosts.New(c.KnownHosts)

		if err != nil {
			return nil, fmt.Errorf("sftp: failed to load known hosts: %w", err)
		}

		cfg.HostKeyCallback = cb
	}

	switch {
	case c.KeyFile != "":
		key, err := os.ReadFile(c.KeyFile)

		if err != nil {
			return nil, fmt.Errorf("sftp: failed to read private key: %w", err)
		}

		signer, err := ssh.ParsePrivateKey(key)

		if err != nil {
			return nil, fmt.Errorf("sftp: failed to parse private key: %w", err)
		}

		cfg.Auth = []ssh.AuthMethod{ssh.PublicKeys(signer)}

	case c.Password != "":
		cfg.Auth = []ssh.AuthMethod{ssh.Password(c.Password)}

	default:
		return nil, fmt.Errorf("sftp: no authentication method provided")
	}

	return cfg, nil
}

// dialSFTP connects in the background so the context can abandon a slow
// handshake
func dialSFTP(ctx context.Context, addr string,
	cfg *ssh.ClientConfig) (*sftp.Client, func(), error) {

	type connResult struct {
		ssh    *ssh.Client
		client *sftp.Client
		err    error
	}

	resultChan := make(chan connResult, 1)

	go func() {
		sshConn, err := ssh.Dial("tcp", addr, cfg)

		if err != nil {
			resultChan <- connResult{err: fmt.Errorf("sftp: failed to connect: %w", err)}
			return
		}

		client, err := sftp.NewClient(sshConn)

		if err != nil {
			sshConn.Close()
			resultChan <- connResult{err: fmt.Errorf("sftp: failed to create client: %w", err)}
			return
		}

		resultChan <- connResult{ssh: sshConn, client: client}
	}()

	select {
	case <-ctx.Done():
		// release a connection that completes after we gave up
		go func() {
			if r := <-resultChan; r.err == nil {
				r.client.Close()
				r.ssh.Close()
			}
		}()

		return nil, nil, ctx.Err()

	case r := <-resultChan:
		if r.err != nil {
			return nil, nil, r.err
		}

		return r.client, func() {
			r.client.Close()
			r.ssh.Close()
		}, nil
	}
}

func (s *SFTPStore) remotePath(name string) (string, error) {

	clean, err := cleanName(name)

	if err != nil {
		return "", err
	}

	return path.Join(s.basePath, clean), nil
}

// Get reads the blob
func (s *SFTPStore) Get(ctx context.Context, name string) ([]byte, error) {

	p, err := s.remotePath(name)

	if err != nil {
		return nil, err
	}

	client, closeFn, err := s.dial(ctx)

	if err != nil {
		return nil, err
	}

	defer closeFn()

	f, err := client.Open(p)

	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("sftp: failed to open %s: %w", p, err)
	}

	defer f.Close()

	data, err := io.ReadAll(f)

	if err != nil {
		return nil, fmt.Errorf("sftp: failed to read %s: %w", p, err)
	}

	return data, nil
}

// Put writes the blob, creating parent directories as needed
func (s *SFTPStore) Put(ctx context.Context, name string, data []byte) error {

	p, err := s.remotePath(name)

	if err != nil {
		return err
	}

	client, closeFn, err := s.dial(ctx)

	if err != nil {
		return err
	}

	defer closeFn()

	if dir := path.Dir(p); dir != "." && dir != "/" {
		if err := client.MkdirAll(dir); err != nil {
			return fmt.Errorf("sftp: failed to create directory %s: %w", dir, err)
		}
	}

	f, err := client.Create(p)

	if err != nil {
		return fmt.Errorf("sftp: failed to create file: %w", err)
	}

	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("sftp: failed to write file: %w", err)
	}

	return nil
}
