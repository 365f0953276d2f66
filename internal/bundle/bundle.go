// Package bundle parses the engine's UnityFS container format (§4.3):
// header, block-info directory, storage-block table, and node directory,
// materializing each node by decompressing only the blocks that cover it.
package bundle

import (
	"fmt"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/buildinspect/buildinspect/internal/bincursor"
	pipelineerrors "github.com/buildinspect/buildinspect/internal/errors"
	"github.com/buildinspect/buildinspect/internal/log"
)

// Compression type codes, shared between the block-info payload and each
// storage block's own flags (low 6 bits of the flags field).
const (
	CompressionNone  = 0
	CompressionLZ4   = 2
	CompressionLZ4HC = 3

	compressionMask = 0x3F

	// flagBlockInfoAtEnd marks that the block-info directory is appended
	// after the node data rather than following the header.
	flagBlockInfoAtEnd = 0x80
)

// StorageBlock is one entry of the bundle's block table.
type StorageBlock struct {
	UncompressedSize uint32
	CompressedSize   uint32
	Flags            uint16
}

func (b StorageBlock) compressionType() int {
	return int(b.Flags) & compressionMask
}

// Node is one named entry in the bundle's uncompressed node space.
type Node struct {
	Offset int64
	Size   int64
	Flags  int32
	Path   string
}

// SerializedNodeFlag marks a node as explicitly flagged serialized (§4.3
// node filtering, flag bit 0x04).
const SerializedNodeFlag = 0x04

// Bundle is a parsed UnityFS container, able to materialize node bytes on
// demand by decompressing only the storage blocks a node overlaps.
type Bundle struct {
	Version        int32
	EngineVersion  string
	EngineRevision string
	Blocks         []StorageBlock
	Nodes          []Node

	compressedBlocks [][]byte // raw (still-compressed) bytes of each block
	decompressed     [][]byte // lazily filled decompression cache, same index
	blockStart       []int64  // cumulative uncompressed offset of each block
}

// Parse reads a UnityFS blob. If the signature does not match, Parse returns
// (nil, nil): per §4.3, an unrecognized blob is abandoned silently, not
// treated as an error.
func Parse(data []byte) (*Bundle, error) {
	cur := bincursor.New(data, true)

	sig, err := cur.ReadCString()
	if err != nil || sig != "UnityFS" {
		return nil, nil
	}

	version, err := cur.ReadI32()
	if err != nil {
		return nil, pipelineerrors.New(pipelineerrors.KindShortRead, "read bundle version", err)
	}
	engineVersion, err := cur.ReadCString()
	if err != nil {
		return nil, pipelineerrors.New(pipelineerrors.KindShortRead, "read engine version", err)
	}
	engineRevision, err := cur.ReadCString()
	if err != nil {
		return nil, pipelineerrors.New(pipelineerrors.KindShortRead, "read engine revision", err)
	}
	if _, err := cur.ReadI64(); err != nil { // total bundle size, unused
		return nil, pipelineerrors.New(pipelineerrors.KindShortRead, "read bundle size", err)
	}
	compressedBlockInfoSize, err := cur.ReadI32()
	if err != nil {
		return nil, pipelineerrors.New(pipelineerrors.KindShortRead, "read compressed block-info size", err)
	}
	uncompressedBlockInfoSize, err := cur.ReadI32()
	if err != nil {
		return nil, pipelineerrors.New(pipelineerrors.KindShortRead, "read uncompressed block-info size", err)
	}
	flags, err := cur.ReadI32()
	if err != nil {
		return nil, pipelineerrors.New(pipelineerrors.KindShortRead, "read bundle flags", err)
	}

	headerEnd := cur.Pos()

	var blockInfoCompressed []byte
	var dataStart int

	if flags&flagBlockInfoAtEnd != 0 {
		start := len(data) - int(compressedBlockInfoSize)
		if start < 0 || start > len(data) {
			return nil, pipelineerrors.New(pipelineerrors.KindMalformedAsset, "locate trailing block-info", fmt.Errorf("out of range"))
		}
		blockInfoCompressed = data[start:]
		dataStart = headerEnd
		if version >= 7 {
			dataStart = align16(dataStart)
		}
	} else {
		pos := headerEnd
		if version >= 7 {
			pos = align16(pos)
		}
		end := pos + int(compressedBlockInfoSize)
		if end > len(data) {
			return nil, pipelineerrors.New(pipelineerrors.KindMalformedAsset, "locate inline block-info", fmt.Errorf("out of range"))
		}
		blockInfoCompressed = data[pos:end]
		dataStart = end
		if version >= 7 {
			dataStart = align16(dataStart)
		}
	}

	compType := int(flags & compressionMask)
	if compType != CompressionNone && compType != CompressionLZ4 && compType != CompressionLZ4HC {
		return nil, pipelineerrors.New(pipelineerrors.KindUnsupportedCompression, "decompress block-info", fmt.Errorf("unsupported compression type %d", compType))
	}
	blockInfoBytes, err := decompressPayload(blockInfoCompressed, compType, int(uncompressedBlockInfoSize))
	if err != nil {
		return nil, pipelineerrors.New(pipelineerrors.KindDecodeFailure, "decompress block-info", err)
	}

	b := &Bundle{Version: version, EngineVersion: engineVersion, EngineRevision: engineRevision}
	if err := b.parseBlockInfoPayload(blockInfoBytes); err != nil {
		return nil, err
	}

	if err := b.sliceCompressedBlocks(data, dataStart); err != nil {
		return nil, err
	}
	b.computeBlockStarts()
	b.decompressed = make([][]byte, len(b.Blocks))

	return b, nil
}

func (b *Bundle) parseBlockInfoPayload(payload []byte) error {
	cur := bincursor.New(payload, true)

	if err := cur.Skip(16); err != nil { // stable identifier, unused
		return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "skip block-info identifier", err)
	}

	blockCount, err := cur.ReadI32()
	if err != nil || blockCount < 0 {
		return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read block count", err)
	}
	b.Blocks = make([]StorageBlock, 0, blockCount)
	for i := int32(0); i < blockCount; i++ {
		uSize, err := cur.ReadU32()
		if err != nil {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read block uncompressed size", err)
		}
		cSize, err := cur.ReadU32()
		if err != nil {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read block compressed size", err)
		}
		blkFlags, err := cur.ReadU16()
		if err != nil {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read block flags", err)
		}
		b.Blocks = append(b.Blocks, StorageBlock{UncompressedSize: uSize, CompressedSize: cSize, Flags: blkFlags})
	}

	nodeCount, err := cur.ReadI32()
	if err != nil || nodeCount < 0 {
		return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read node count", err)
	}
	b.Nodes = make([]Node, 0, nodeCount)
	for i := int32(0); i < nodeCount; i++ {
		offset, err := cur.ReadI64()
		if err != nil {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read node offset", err)
		}
		size, err := cur.ReadI64()
		if err != nil {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read node size", err)
		}
		nodeFlags, err := cur.ReadI32()
		if err != nil {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read node flags", err)
		}
		path, err := cur.ReadCString()
		if err != nil {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "read node path", err)
		}
		b.Nodes = append(b.Nodes, Node{Offset: offset, Size: size, Flags: nodeFlags, Path: path})
	}

	return nil
}

func (b *Bundle) sliceCompressedBlocks(data []byte, dataStart int) error {
	b.compressedBlocks = make([][]byte, len(b.Blocks))
	pos := dataStart
	for i, blk := range b.Blocks {
		end := pos + int(blk.CompressedSize)
		if end > len(data) {
			return pipelineerrors.New(pipelineerrors.KindMalformedAsset, "slice storage block", fmt.Errorf("block %d exceeds bundle length", i))
		}
		b.compressedBlocks[i] = data[pos:end]
		pos = end
	}
	return nil
}

func (b *Bundle) computeBlockStarts() {
	b.blockStart = make([]int64, len(b.Blocks)+1)
	var total int64
	for i, blk := range b.Blocks {
		b.blockStart[i] = total
		total += int64(blk.UncompressedSize)
	}
	b.blockStart[len(b.Blocks)] = total
}

// totalUncompressed returns the size of the uncompressed concatenation of
// every storage block.
func (b *Bundle) totalUncompressed() int64 {
	if len(b.blockStart) == 0 {
		return 0
	}
	return b.blockStart[len(b.blockStart)-1]
}

func (b *Bundle) blockBytes(i int) ([]byte, error) {
	if b.decompressed[i] != nil {
		return b.decompressed[i], nil
	}
	blk := b.Blocks[i]
	out, err := decompressPayload(b.compressedBlocks[i], blk.compressionType(), int(blk.UncompressedSize))
	if err != nil {
		log.Bundle("skipping node data in block %d: %v", i, err)
		return nil, err
	}
	b.decompressed[i] = out
	return out, nil
}

// Materialize produces the node's bytes by decompressing only the storage
// blocks it overlaps.
func (b *Bundle) Materialize(n Node) ([]byte, error) {
	end := n.Offset + n.Size
	if n.Offset < 0 || n.Size < 0 || end > b.totalUncompressed() {
		return nil, pipelineerrors.New(pipelineerrors.KindMalformedAsset, "materialize node", fmt.Errorf("node %q out of range", n.Path)).WithFile(n.Path)
	}

	out := make([]byte, 0, n.Size)
	for i := range b.Blocks {
		blockStart := b.blockStart[i]
		blockEnd := b.blockStart[i+1]
		if blockEnd <= n.Offset || blockStart >= end {
			continue // block does not intersect node; never decompressed
		}

		data, err := b.blockBytes(i)
		if err != nil {
			return nil, pipelineerrors.New(pipelineerrors.KindDecodeFailure, "materialize node", err).WithFile(n.Path)
		}

		lo := int64(0)
		if n.Offset > blockStart {
			lo = n.Offset - blockStart
		}
		hi := blockEnd - blockStart
		if end < blockEnd {
			hi = end - blockStart
		}
		if lo < 0 || hi > int64(len(data)) || lo > hi {
			return nil, pipelineerrors.New(pipelineerrors.KindMalformedAsset, "materialize node", fmt.Errorf("block %d range mismatch for %q", i, n.Path)).WithFile(n.Path)
		}
		out = append(out, data[lo:hi]...)
		if int64(len(out)) >= n.Size {
			break
		}
	}

	return out, nil
}

// ShouldParseAsAsset reports whether a node should be handed to the Asset
// Reader, per §4.3 node filtering.
func ShouldParseAsAsset(n Node) bool {
	lower := strings.ToLower(n.Path)
	if strings.HasSuffix(lower, ".ress") || strings.HasSuffix(lower, ".resource") {
		return false
	}
	if n.Flags&SerializedNodeFlag != 0 {
		return true
	}
	if strings.HasSuffix(lower, ".assets") || strings.HasSuffix(lower, ".sharedassets") {
		return true
	}
	if strings.Contains(lower, "globalgamemanagers") || strings.HasPrefix(lower, "level") {
		return true
	}
	if strings.Contains(lower, "unity_builtin_extra") || strings.Contains(lower, "unity default resources") {
		return true
	}
	return false
}

func decompressPayload(compressed []byte, compType int, declaredSize int) ([]byte, error) {
	switch compType {
	case CompressionNone:
		if len(compressed) < declaredSize {
			return compressed, nil
		}
		return compressed[:declaredSize], nil
	case CompressionLZ4, CompressionLZ4HC:
		return decompressLZ4(compressed, declaredSize)
	default:
		return nil, fmt.Errorf("unsupported compression type %d", compType)
	}
}

// decompressLZ4 decodes a frameless LZ4 block. A non-positive decoded
// length is fatal for this payload; a decoded length that differs from the
// declared size is accepted and logged, not an error, per §4.3.
func decompressLZ4(compressed []byte, declaredSize int) ([]byte, error) {
	buf := make([]byte, declaredSize)
	n, err := lz4.UncompressBlock(compressed, buf)
	if err != nil || n <= 0 {
		// Single retry with a larger buffer.
		bigger := make([]byte, declaredSize*2+64)
		n2, err2 := lz4.UncompressBlock(compressed, bigger)
		if err2 != nil || n2 <= 0 {
			return nil, fmt.Errorf("lz4 decode failed after retry: %v / %v", err, err2)
		}
		if n2 != declaredSize {
			log.Bundle("lz4 decode length %d differs from declared %d", n2, declaredSize)
		}
		return bigger[:n2], nil
	}
	if n != declaredSize {
		log.Bundle("lz4 decode length %d differs from declared %d", n, declaredSize)
	}
	return buf[:n], nil
}

func align16(pos int) int {
	rem := pos % 16
	if rem == 0 {
		return pos
	}
	return pos + (16 - rem)
}
