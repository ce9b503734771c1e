package ftp

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/postalhub/letter-dispatch/internal/config"
	"github.com/postalhub/letter-dispatch/internal/models"
)

// Report is one vendor confirmation file downloaded from the reports folder.
type Report struct {
	Path string
	Data []byte
}

// Client performs every logical operation over its own short-lived SFTP
// session: connect, verify the pinned host key, authenticate, act, tear
// down. No pooling, so an idle-session drop can never poison a later call
// and every operation is independently retryable by the next scheduler tick.
type Client struct {
	cfg    config.SFTPConfig
	signer ssh.Signer
}

func NewClient(cfg config.SFTPConfig) (*Client, error) {
	if cfg.Host == "" || cfg.User == "" {
		return nil, fmt.Errorf("sftp host and user must be configured")
	}
	if cfg.HostKeyFingerprint == "" {
		return nil, fmt.Errorf("sftp host key fingerprint must be configured")
	}

	keyBytes, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("error reading sftp private key: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("error parsing sftp private key: %w", err)
	}

	return &Client{cfg: cfg, signer: signer}, nil
}

type session struct {
	conn *ssh.Client
	sftp *sftp.Client
}

func (s *session) close() {
	s.sftp.Close()
	s.conn.Close()
}

func (c *Client) verifyHostKey(hostname string, remote net.Addr, key ssh.PublicKey) error {
	fingerprint := ssh.FingerprintSHA256(key)
	if fingerprint != c.cfg.HostKeyFingerprint {
		return fmt.Errorf("host key fingerprint mismatch for %s: got %s", hostname, fingerprint)
	}
	return nil
}

func (c *Client) connect() (*session, error) {
	sshCfg := &ssh.ClientConfig{
		User:            c.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: c.verifyHostKey,
		Timeout:         c.cfg.Timeout,
	}

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	conn, err := ssh.Dial("tcp", addr, sshCfg)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", addr, err)
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error opening sftp session: %w", err)
	}

	return &session{conn: conn, sftp: client}, nil
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

// Upload writes data to {base}/{targetFolder}/{filename}. On a transport
// timeout the possibly half-written remote file is best-effort deleted
// before the error is raised, so the vendor's ingestion never picks up a
// truncated archive.
func (c *Client) Upload(data []byte, targetFolder, filename string) error {
	sess, err := c.connect()
	if err != nil {
		return &models.FtpError{Op: "upload", Err: err}
	}
	defer sess.close()

	remotePath := path.Join(c.cfg.BaseDir, targetFolder, filename)
	file, err := sess.sftp.Create(remotePath)
	if err != nil {
		return &models.FtpError{Op: "upload", Err: fmt.Errorf("error creating %s: %w", remotePath, err)}
	}

	_, writeErr := file.Write(data)
	closeErr := file.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		if isTimeout(writeErr) {
			if rmErr := sess.sftp.Remove(remotePath); rmErr != nil {
				log.Printf("WARN: could not remove partial upload %s: %v", remotePath, rmErr)
			}
		}
		return &models.FtpError{Op: "upload", Err: fmt.Errorf("error writing %s: %w", remotePath, writeErr)}
	}

	return nil
}

// DownloadReports lists the reports folder and fully downloads every regular
// file with a .csv suffix, case-insensitive.
func (c *Client) DownloadReports() ([]Report, error) {
	sess, err := c.connect()
	if err != nil {
		return nil, &models.FtpError{Op: "download reports", Err: err}
	}
	defer sess.close()

	entries, err := sess.sftp.ReadDir(c.cfg.ReportsDir)
	if err != nil {
		return nil, &models.FtpError{Op: "download reports", Err: fmt.Errorf("error listing %s: %w", c.cfg.ReportsDir, err)}
	}

	var reports []Report
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}

		remotePath := path.Join(c.cfg.ReportsDir, entry.Name())
		file, err := sess.sftp.Open(remotePath)
		if err != nil {
			return nil, &models.FtpError{Op: "download reports", Err: fmt.Errorf("error opening %s: %w", remotePath, err)}
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, &models.FtpError{Op: "download reports", Err: fmt.Errorf("error reading %s: %w", remotePath, err)}
		}

		reports = append(reports, Report{Path: remotePath, Data: data})
	}

	return reports, nil
}

// DeleteReport removes a fully processed report from the vendor server.
func (c *Client) DeleteReport(remotePath string) error {
	return c.remove("delete report", remotePath)
}

// DeleteFile removes an arbitrary remote file.
func (c *Client) DeleteFile(remotePath string) error {
	return c.remove("delete file", remotePath)
}

func (c *Client) remove(op, remotePath string) error {
	sess, err := c.connect()
	if err != nil {
		return &models.FtpError{Op: op, Err: err}
	}
	defer sess.close()

	if err := sess.sftp.Remove(remotePath); err != nil {
		return &models.FtpError{Op: op, Err: fmt.Errorf("error removing %s: %w", remotePath, err)}
	}

	return nil
}

// ListLetters returns the names of the regular files currently sitting in a
// target folder.
func (c *Client) ListLetters(targetFolder string) ([]string, error) {
	sess, err := c.connect()
	if err != nil {
		return nil, &models.FtpError{Op: "list letters", Err: err}
	}
	defer sess.close()

	folder := path.Join(c.cfg.BaseDir, targetFolder)
	entries, err := sess.sftp.ReadDir(folder)
	if err != nil {
		return nil, &models.FtpError{Op: "list letters", Err: fmt.Errorf("error listing %s: %w", folder, err)}
	}

	var names []string
	for _, entry := range entries {
		if entry.Mode().IsRegular() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}
