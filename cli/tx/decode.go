package tx

import (
	"encoding/hex"
	"fmt"
	"sort"

	json "github.com/nspcc-dev/go-ordered-json"
	"github.com/thepower/tpgo/pkg/core/transaction"
	"github.com/urfave/cli"
)

func decode(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.NewExitError(errNoTx, 1)
	}
	env, err := transaction.DecodeEnvelope(ctx.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	obj, err := envelopeJSON(env)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	fmt.Fprintln(ctx.App.Writer, string(b))
	return nil
}

// envelopeJSON renders the envelope with fields in their wire order.
func envelopeJSON(env *transaction.Envelope) (json.OrderedObject, error) {
	b, err := env.DecodeBody()
	if err != nil {
		return nil, err
	}
	sigs := make([]json.OrderedObject, 0, len(env.Sig))
	for _, s := range env.Sig {
		var pub string
		if k, err := transaction.SignerKey(s); err == nil {
			pub = hex.EncodeToString(k)
		}
		sigs = append(sigs, json.OrderedObject{
			{Key: "pub", Value: pub},
			{Key: "valid", Value: transaction.VerifySingle(env.Body, s)},
		})
	}
	return json.OrderedObject{
		{Key: "body", Value: bodyJSON(b)},
		{Key: "sig", Value: sigs},
		{Key: "ver", Value: env.Ver},
	}, nil
}

func bodyJSON(b *transaction.Body) json.OrderedObject {
	obj := json.OrderedObject{{Key: "k", Value: b.Kind.String()}}
	add := func(k string, v any) {
		obj = append(obj, json.Member{Key: k, Value: v})
	}
	if b.Timestamp != 0 {
		add("t", b.Timestamp)
	}
	if b.From != nil {
		add("f", hexString(b.From))
	}
	if b.To != nil {
		add("to", hexString(b.To))
	}
	if b.Seq != nil {
		add("s", *b.Seq)
	}
	if b.Nonce != nil {
		add("nonce", *b.Nonce)
	}
	if b.Hash != nil {
		add("h", hexString(b.Hash))
	}
	if b.Purposes != nil {
		ps := make([]json.OrderedObject, 0, len(b.Purposes))
		for _, p := range b.Purposes {
			ps = append(ps, json.OrderedObject{
				{Key: "purpose", Value: p.Purpose.String()},
				{Key: "token", Value: p.Token},
				{Key: "amount", Value: p.Amount},
			})
		}
		add("p", ps)
	}
	if b.Ext != nil {
		add("e", jsonValue(b.Ext))
	}
	for _, f := range b.Extra {
		add(f.Key, hexString(f.Value))
	}
	return obj
}

func hexString(b []byte) string {
	return hex.EncodeToString(b)
}

// jsonValue converts decoded msgpack values into something JSON can
// represent: maps become objects with sorted keys, byte strings become hex.
func jsonValue(v any) any {
	switch v := v.(type) {
	case []byte:
		return hexString(v)
	case []any:
		res := make([]any, len(v))
		for i := range v {
			res[i] = jsonValue(v[i])
		}
		return res
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(json.OrderedObject, 0, len(v))
		for _, k := range keys {
			obj = append(obj, json.Member{Key: k, Value: jsonValue(v[k])})
		}
		return obj
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(jsonValue(k))] = val
		}
		return jsonValue(m)
	default:
		return v
	}
}
