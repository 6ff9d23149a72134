/*
 * VC5 load balancer. Copyright (C) 2021-present David Coles
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package serial

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// baudRateConst maps a requested baud rate to its unix.Bxxx termios
// constant. Only the rates the console bridge actually uses are listed.
func baudRateConst(baud int) (uint32, error) {
	switch baud {
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	default:
		return 0, fmt.Errorf("serial: unsupported baud rate %d", baud)
	}
}

// OpenRaw opens the tty at path and configures it as an unbuffered, 8N1
// raw-mode serial line at baud: no echo, no line editing, no signal
// generation, no character translation. This is the mode the host-gateway
// line protocol expects — every byte it writes goes straight to the wire
// and every byte read comes straight back, CRLFs included.
func OpenRaw(path string, baud int) (*os.File, error) {
	rate, err := baudRateConst(baud)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", path, err)
	}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("serial: get termios: %w", err)
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	t.Ispeed = rate
	t.Ospeed = rate
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("serial: set termios: %w", err)
	}
	if err := setBaudFields(fd, rate); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// setBaudFields re-applies the cflag baud bits via CBAUD, since some
// kernels ignore Ispeed/Ospeed unless the encoded rate also appears there.
func setBaudFields(fd int, rate uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("serial: get termios: %w", err)
	}
	t.Cflag &^= unix.CBAUD
	t.Cflag |= rate
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("serial: set termios: %w", err)
	}
	return nil
}
