package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAccount struct {
	ID      int64     `orm:"id,pk,autoincrement"`
	Email   string    `orm:"email,required,unique"`
	Balance float64   `orm:"balance,default=10.5"`
	Created time.Time `orm:"created,index"`
	secret  string
	Skip    string `orm:"-"`
}

type testPost struct {
	ID     int          `orm:"id,pk"`
	Title  string       `orm:",required,default='untitled'"`
	Author *testAccount `orm:"author"`
	Parent *testPost    `orm:"parent"`
}

func (testPost) ModelName() string {
	return "Post"
}

func TestBuilder_FromStruct(t *testing.T) {
	b := NewBuilder()
	d, err := b.FromStruct(&testAccount{})
	require.NoError(t, err)

	assert.Equal(t, "testAccount", d.Name)
	assert.Equal(t, []string{"id", "email", "balance", "created"}, d.FieldNames())
	assert.Equal(t, Meta{
		PrimaryKey:    "id",
		AutoIncrement: true,
		Indexes:       []string{"created"},
		UniqueIndexes: []string{"email"},
	}, d.Meta)

	email, _ := d.Field("email")
	assert.True(t, email.Required)
	assert.Equal(t, String, email.Type)

	balance, _ := d.Field("balance")
	assert.Equal(t, Float, balance.Type)
	assert.Equal(t, 10.5, balance.Default)

	created, _ := d.Field("created")
	assert.Equal(t, Timestamp, created.Type)

	again, err := b.FromStruct(testAccount{})
	require.NoError(t, err)
	assert.Same(t, d, again)
}

func TestBuilder_References(t *testing.T) {
	b := NewBuilder()
	post, err := b.FromStruct(testPost{})
	require.NoError(t, err)

	assert.Equal(t, "Post", post.Name)
	title, _ := post.Field("title")
	assert.True(t, title.Required)
	assert.Equal(t, "untitled", title.Default)

	author, _ := post.Field("author")
	require.NotNil(t, author.Ref)
	assert.Equal(t, Type("testAccount"), author.Type)

	account, err := b.FromStruct(testAccount{})
	require.NoError(t, err)
	assert.Same(t, account, author.Ref)

	parent, _ := post.Field("parent")
	assert.Same(t, post, parent.Ref)
}

func TestBuilder_Errors(t *testing.T) {
	b := NewBuilder()

	_, err := b.FromStruct(nil)
	assert.Error(t, err)
	_, err = b.FromStruct(42)
	assert.Error(t, err)
	_, err = b.FromStruct(time.Now())
	assert.Error(t, err)

	type empty struct{ hidden int }
	_, err = b.FromStruct(empty{})
	assert.Error(t, err)

	type twoKeys struct {
		A int `orm:"a,pk"`
		B int `orm:"b,primary"`
	}
	_, err = b.FromStruct(twoKeys{})
	assert.Error(t, err)
}

func TestBuilder_UnknownKind(t *testing.T) {
	type tagged struct {
		ID   int      `orm:"id"`
		Tags []string `orm:"tags"`
		Flag bool     `orm:"flag,type=int"`
	}
	d, err := NewBuilder().FromStruct(tagged{})
	require.NoError(t, err)

	tags, _ := d.Field("tags")
	assert.Equal(t, Type("slice"), tags.Type)
	flag, _ := d.Field("flag")
	assert.Equal(t, Int, flag.Type)
}

func TestBuilder_InstanceOf(t *testing.T) {
	b := NewBuilder()
	now := time.Now()
	post := &testPost{
		ID:     3,
		Title:  "hello",
		Author: &testAccount{ID: 1, Email: "a@b.c", Created: now},
	}

	i, err := b.InstanceOf(post)
	require.NoError(t, err)
	assert.Equal(t, "Post", i.Model().Name)

	title, _ := i.Value("title")
	assert.Equal(t, "hello", title)
	_, ok := i.Value("parent")
	assert.False(t, ok)

	v, ok := i.Value("author")
	require.True(t, ok)
	author, ok := v.(*Instance)
	require.True(t, ok)
	email, _ := author.Value("email")
	assert.Equal(t, "a@b.c", email)
	created, _ := author.Value("created")
	assert.Equal(t, now, created)

	_, err = b.InstanceOf((*testPost)(nil))
	assert.Error(t, err)
}
