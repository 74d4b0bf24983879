// SPDX-License-Identifier: GPL-3.0-or-later

package wire

// SSHSoftwareVersion is the software version we claim in the banner.
const SSHSoftwareVersion = "OpenSSH_8.2p1 Ubuntu-4ubuntu0.5"

// BuildSSHBanner returns the SSH version-exchange line terminated by CRLF.
func BuildSSHBanner() []byte {
	return []byte("SSH-2.0-" + SSHSoftwareVersion + "\r\n")
}
