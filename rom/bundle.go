package rom

import (
	"errors"
	"io"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/ezrec/shapedet/fixed"
)

// Bundle wire layout (protobuf encoding, no schema compiler needed):
//
//	Bundle { repeated Layer layer = 1; }
//	Layer  { string name = 1; uint32 fan_in = 2; uint32 fan_out = 3;
//	         repeated sint32 weights = 4 [packed]; repeated sint32 biases = 5 [packed]; }
const (
	BUNDLE_LAYER = protowire.Number(1)

	LAYER_NAME    = protowire.Number(1)
	LAYER_FAN_IN  = protowire.Number(2)
	LAYER_FAN_OUT = protowire.Number(3)
	LAYER_WEIGHTS = protowire.Number(4)
	LAYER_BIASES  = protowire.Number(5)
)

func appendPacked(b []byte, num protowire.Number, values []fixed.Value) []byte {
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendVarint(packed, protowire.EncodeZigZag(int64(v)))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func (layer *Layer) appendWire(b []byte) []byte {
	b = protowire.AppendTag(b, LAYER_NAME, protowire.BytesType)
	b = protowire.AppendString(b, layer.Name)
	b = protowire.AppendTag(b, LAYER_FAN_IN, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(layer.FanIn))
	b = protowire.AppendTag(b, LAYER_FAN_OUT, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(layer.FanOut))
	b = appendPacked(b, LAYER_WEIGHTS, layer.weights)
	b = appendPacked(b, LAYER_BIASES, layer.biases)
	return b
}

// MarshalBundle encodes all layers into a single binary bundle.
func MarshalBundle(rom *Rom) (data []byte) {
	for _, layer := range rom.Layer {
		if layer == nil {
			continue
		}
		data = protowire.AppendTag(data, BUNDLE_LAYER, protowire.BytesType)
		data = protowire.AppendBytes(data, layer.appendWire(nil))
	}
	return
}

// consumeValue decodes one zig-zag varint into a Value, rejecting overflow.
func consumeValue(b []byte) (value fixed.Value, n int, err error) {
	raw, n := protowire.ConsumeVarint(b)
	if n < 0 {
		err = errors.Join(ErrBundle, protowire.ParseError(n))
		return
	}
	wide := protowire.DecodeZigZag(raw)
	if wide != int64(fixed.Saturate(int32(wide))) {
		err = ErrBundle
		return
	}
	value = fixed.Value(wide)
	return
}

// consumeValues decodes a packed or unpacked repeated sint32 field.
func consumeValues(typ protowire.Type, b []byte, values []fixed.Value) (out []fixed.Value, n int, err error) {
	out = values

	switch typ {
	case protowire.VarintType:
		var value fixed.Value
		value, n, err = consumeValue(b)
		if err != nil {
			return
		}
		out = append(out, value)
	case protowire.BytesType:
		var packed []byte
		packed, n = protowire.ConsumeBytes(b)
		if n < 0 {
			err = errors.Join(ErrBundle, protowire.ParseError(n))
			return
		}
		for len(packed) > 0 {
			value, used, perr := consumeValue(packed)
			if perr != nil {
				err = perr
				return
			}
			out = append(out, value)
			packed = packed[used:]
		}
	default:
		err = ErrBundle
	}

	return
}

func unmarshalLayer(b []byte) (layer *Layer, err error) {
	var shape Shape
	var weights, biases []fixed.Value

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			err = errors.Join(ErrBundle, protowire.ParseError(n))
			return
		}
		b = b[n:]

		switch {
		case num == LAYER_NAME && typ == protowire.BytesType:
			shape.Name, n = protowire.ConsumeString(b)
		case num == LAYER_FAN_IN && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			shape.FanIn = int(v)
		case num == LAYER_FAN_OUT && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			shape.FanOut = int(v)
		case num == LAYER_WEIGHTS:
			weights, n, err = consumeValues(typ, b, weights)
		case num == LAYER_BIASES:
			biases, n, err = consumeValues(typ, b, biases)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if err != nil {
			return
		}
		if n < 0 {
			err = errors.Join(ErrBundle, protowire.ParseError(n))
			return
		}
		b = b[n:]
	}

	return NewLayer(shape, weights, biases)
}

// UnmarshalBundle decodes a bundle written by MarshalBundle.
func UnmarshalBundle(data []byte) (rom *Rom, err error) {
	byName := map[string]*Layer{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			err = errors.Join(ErrBundle, protowire.ParseError(n))
			return
		}
		data = data[n:]

		if num != BUNDLE_LAYER || typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				err = errors.Join(ErrBundle, protowire.ParseError(n))
				return
			}
			data = data[n:]
			continue
		}

		var record []byte
		record, n = protowire.ConsumeBytes(data)
		if n < 0 {
			err = errors.Join(ErrBundle, protowire.ParseError(n))
			return
		}
		data = data[n:]

		var layer *Layer
		layer, err = unmarshalLayer(record)
		if err != nil {
			return
		}
		byName[layer.Name] = layer
	}

	layers := make([]*Layer, LAYER_COUNT)
	for n, shape := range Shapes {
		layers[n] = byName[shape.Name]
		delete(byName, shape.Name)
	}
	for name := range byName {
		err = &ErrTable{Name: name, Err: ErrLayerUnknown}
		return
	}

	return New(layers...)
}

// ReadBundle reads and decodes a bundle.
func ReadBundle(r io.Reader) (rom *Rom, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return
	}
	return UnmarshalBundle(data)
}

// WriteBundle encodes and writes a bundle.
func WriteBundle(w io.Writer, rom *Rom) (err error) {
	_, err = w.Write(MarshalBundle(rom))
	return
}
