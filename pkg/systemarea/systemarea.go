package systemarea

// SystemArea is a 32 KiB byte array used for the system area of an ISO 9660 image.
type SystemArea [32 * 1024]byte
