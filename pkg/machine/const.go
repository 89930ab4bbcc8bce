// Copyright (C) 2024  Ayoub Elken

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

const (
	MEM_SIZE uint32 = 1 << 20
	MEM_MASK uint32 = MEM_SIZE - 1
)

// Console registers sit above the memory mask and are intercepted before it
// applies
const (
	DEV_KBSR uint32 = 0xFFFF0000
	DEV_KBDR uint32 = 0xFFFF0004
	DEV_DSR  uint32 = 0xFFFF0008
	DEV_DDR  uint32 = 0xFFFF000C
)

const DEV_READY uint32 = 1 << 31
