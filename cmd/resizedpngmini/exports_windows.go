//go:build windows

package main

/*
#include <windows.h>
*/
import "C"

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// GMEM_FIXED: the handle is the address of the block
const gmemFixed = 0x0000

var (
	kernel32        = windows.NewLazySystemDLL("kernel32.dll")
	procGlobalAlloc = kernel32.NewProc("GlobalAlloc")
	procGlobalFree  = kernel32.NewProc("GlobalFree")
)

// readGlobal copies n bytes out of a GMEM_FIXED block and frees it
func readGlobal(h C.HGLOBAL, n C.long) []byte {
	if h == nil {
		return nil
	}
	var data []byte
	if n > 0 {
		data = C.GoBytes(unsafe.Pointer(h), C.int(n))
	}
	//nolint:errcheck // The host handed the block over; nothing to report to
	procGlobalFree.Call(uintptr(unsafe.Pointer(h)))
	return data
}

// writeGlobal copies data into a new GMEM_FIXED block owned by the host
func writeGlobal(data []byte) (C.HGLOBAL, error) {
	size := len(data)
	if size == 0 {
		size = 1
	}
	handle, _, err := procGlobalAlloc.Call(gmemFixed, uintptr(size))
	if handle == 0 {
		return nil, err
	}
	//nolint:govet // GMEM_FIXED handles are plain pointers into the process heap
	ptr := unsafe.Pointer(handle)
	copy(unsafe.Slice((*byte)(ptr), size), data)
	return C.HGLOBAL(ptr), nil
}

//export load
func load(h C.HGLOBAL, length C.long) C.BOOL {
	if loadPlugin(readGlobal(h, length)) {
		return C.TRUE
	}
	return C.FALSE
}

//export unload
func unload() C.BOOL {
	unloadPlugin()
	return C.TRUE
}

//export request
func request(h C.HGLOBAL, length *C.long) C.HGLOBAL {
	if length == nil {
		return nil
	}
	resp := handleRequest(readGlobal(h, *length))

	out, err := writeGlobal(resp)
	if err != nil {
		*length = 0
		return nil
	}
	*length = C.long(len(resp))
	return out
}
