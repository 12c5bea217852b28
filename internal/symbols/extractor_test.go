package symbols_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-phpls/phpls/internal/cst"
	"github.com/go-phpls/phpls/internal/symbols"
)

func TestExtractClassWithMethodAndProperty(t *testing.T) {
	src := []byte(`<?php
namespace App\Model;

use App\Contracts\Greeter;

/**
 * Represents a user of the system.
 */
class User implements Greeter
{
    private string $name;

    /**
     * @param string $name
     */
    public function __construct(string $name)
    {
        $this->name = $name;
    }

    public function greet(): string
    {
        return "hello " . $this->name;
    }
}
`)

	p := cst.NewParser()
	defer p.Close()
	tree, err := p.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	fs := symbols.Extract("file:///User.php", tree, src)

	var class, ctor, greet, prop *symbols.Descriptor
	for i := range fs.Symbols {
		s := &fs.Symbols[i]
		switch {
		case s.Kind == symbols.KindClass && s.ShortName == "User":
			class = s
		case s.Kind == symbols.KindMethod && s.ShortName == "__construct":
			ctor = s
		case s.Kind == symbols.KindMethod && s.ShortName == "greet":
			greet = s
		case s.Kind == symbols.KindProperty && s.ShortName == "name":
			prop = s
		}
	}

	require.NotNil(t, class)
	assert.Equal(t, `App\Model\User`, class.FQN)
	assert.Contains(t, class.Implements, `App\Contracts\Greeter`)
	assert.Equal(t, "Represents a user of the system.", class.DocSummary)

	require.NotNil(t, ctor)
	assert.Equal(t, `App\Model\User::__construct`, ctor.FQN)
	require.Len(t, ctor.Signature.Parameters, 1)
	assert.Equal(t, "name", ctor.Signature.Parameters[0].Name)

	require.NotNil(t, greet)
	assert.Equal(t, symbols.VisibilityPublic, greet.Visibility)

	require.NotNil(t, prop)
	assert.Equal(t, symbols.VisibilityPrivate, prop.Visibility)
	assert.Equal(t, symbols.Named("string"), prop.Signature.ReturnType)
}

func TestExtractConstructorPromotedProperty(t *testing.T) {
	src := []byte(`<?php
class Point {
    public function __construct(private readonly int $x, private readonly int $y) {}
}
`)
	p := cst.NewParser()
	defer p.Close()
	tree, err := p.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	fs := symbols.Extract("file:///Point.php", tree, src)

	var xProp *symbols.Descriptor
	for i := range fs.Symbols {
		if fs.Symbols[i].Kind == symbols.KindProperty && fs.Symbols[i].ShortName == "x" {
			xProp = &fs.Symbols[i]
		}
	}
	require.NotNil(t, xProp)
	assert.Equal(t, "Point::$x", xProp.FQN)
	assert.Equal(t, symbols.VisibilityPrivate, xProp.Visibility)
}

func TestExtractParameterAndLocalVariableDescriptors(t *testing.T) {
	src := []byte(`<?php
namespace App;

class Sender {
    public function send(string $to): void {
        $body = "hello " . $to;
        $body = $body . "!";
    }
}
`)
	p := cst.NewParser()
	defer p.Close()
	tree, err := p.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	fs := symbols.Extract("file:///Sender.php", tree, src)

	var param *symbols.Descriptor
	var locals []symbols.Descriptor
	for i := range fs.Symbols {
		s := &fs.Symbols[i]
		switch {
		case s.Kind == symbols.KindParameter && s.ShortName == "to":
			param = s
		case s.Kind == symbols.KindLocalVariable && s.ShortName == "body":
			locals = append(locals, *s)
		}
	}

	require.NotNil(t, param)
	assert.Equal(t, `App\Sender::send::$to`, param.FQN)
	assert.Equal(t, `App\Sender::send`, param.ContainerFQN)

	require.Len(t, locals, 2)
	for _, l := range locals {
		assert.Equal(t, `App\Sender::send`, l.ContainerFQN)
	}
	assert.NotEqual(t, locals[0].FQN, locals[1].FQN)
}

func TestExtractReferencesToNewExpression(t *testing.T) {
	src := []byte(`<?php
namespace App;

use App\Service\Mailer;

class Sender {
    public function send(): void {
        $mailer = new Mailer();
    }
}
`)
	p := cst.NewParser()
	defer p.Close()
	tree, err := p.Parse(context.Background(), src)
	require.NoError(t, err)
	defer tree.Close()

	fs := symbols.Extract("file:///Sender.php", tree, src)
	refs, ok := fs.References[`App\Service\Mailer`]
	require.True(t, ok)
	assert.NotEmpty(t, refs)
}
