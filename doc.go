// Package rudp implements a reliable, ordered, message-preserving
// transport on top of unreliable IPv4 UDP datagrams.
//
// A Sender and a Receiver perform a SYN/SYN-ACK handshake at open,
// exchange data as a sequence of stop-and-wait segments each covered by
// a 16-bit Internet checksum, and tear the connection down with a
// FIN/FIN-ACK exchange. The protocol is strictly one sender to one
// receiver: there is no multiplexing, windowing, or congestion control
// beyond bounded per-segment retry.
package rudp
